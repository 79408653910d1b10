package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"tracehub/internal/audit"
	"tracehub/internal/auth"
	"tracehub/internal/models"
	"tracehub/internal/storage"
)

type fakeTraceStore struct {
	traces  map[uuid.UUID]*models.Trace
	deleted []uuid.UUID
}

func newFakeTraceStore() *fakeTraceStore {
	return &fakeTraceStore{traces: make(map[uuid.UUID]*models.Trace)}
}

func (f *fakeTraceStore) GetByID(ctx context.Context, projectID, id uuid.UUID) (*models.Trace, error) {
	trace, ok := f.traces[id]
	if !ok || trace.ProjectID != projectID {
		return nil, storage.ErrTraceNotFound
	}
	return trace, nil
}

func (f *fakeTraceStore) Delete(ctx context.Context, projectID, id uuid.UUID) error {
	if _, err := f.GetByID(ctx, projectID, id); err != nil {
		return err
	}
	delete(f.traces, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func TestTracesHandler_DeleteRecordsSessionShapedAudit(t *testing.T) {
	store := newFakeTraceStore()
	auditStore := &fakeAuditStore{}
	handler := NewTracesHandler(store, audit.NewRecorder(auditStore))

	projectID := uuid.New()
	userID := "end-user-7"
	trace := &models.Trace{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserID:    &userID,
		Timestamp: time.Now(),
		Name:      "checkout",
	}
	store.traces[trace.ID] = trace

	req := httptest.NewRequest(http.MethodDelete, "/v1/traces/"+trace.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, withSession(req, testSession(projectID, auth.RoleMember)))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(store.deleted) != 1 {
		t.Fatalf("Expected 1 delete, got %d", len(store.deleted))
	}

	if len(auditStore.entries) != 1 {
		t.Fatalf("Expected 1 audit entry, got %d", len(auditStore.entries))
	}
	entry := auditStore.entries[0]
	if entry.ResourceType != models.ResourceTrace || entry.Action != "delete" {
		t.Errorf("Unexpected audit entry: %+v", entry)
	}
	if entry.UserID != "user-1" || entry.UserProjectRole != "MEMBER" || entry.ProjectID != projectID {
		t.Errorf("Session context not carried into audit entry: %+v", entry)
	}
	if entry.Before == nil {
		t.Fatal("Delete must carry a before snapshot")
	}

	var snapshot models.Trace
	if err := json.Unmarshal([]byte(*entry.Before), &snapshot); err != nil {
		t.Fatalf("Before snapshot is not valid JSON: %v", err)
	}
	if snapshot.ID != trace.ID || snapshot.Name != "checkout" {
		t.Errorf("Expected snapshot of the deleted trace, got %+v", snapshot)
	}
}

func TestTracesHandler_DeleteUnknownTrace(t *testing.T) {
	handler := NewTracesHandler(newFakeTraceStore(), audit.NewRecorder(&fakeAuditStore{}))

	req := httptest.NewRequest(http.MethodDelete, "/v1/traces/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, withSession(req, testSession(uuid.New(), auth.RoleMember)))

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}

func TestTracesHandler_DeleteSurvivesAuditFailure(t *testing.T) {
	store := newFakeTraceStore()
	auditStore := &fakeAuditStore{insertErr: errors.New("audit db down")}
	handler := NewTracesHandler(store, audit.NewRecorder(auditStore))

	projectID := uuid.New()
	trace := &models.Trace{ID: uuid.New(), ProjectID: projectID, Name: "t"}
	store.traces[trace.ID] = trace

	req := httptest.NewRequest(http.MethodDelete, "/v1/traces/"+trace.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, withSession(req, testSession(projectID, auth.RoleMember)))

	// The mutation stands even though the audit write failed.
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rr.Code)
	}
	if len(store.deleted) != 1 {
		t.Errorf("Expected the delete to stick, got %d", len(store.deleted))
	}
}

func TestTracesHandler_Get(t *testing.T) {
	store := newFakeTraceStore()
	handler := NewTracesHandler(store, audit.NewRecorder(&fakeAuditStore{}))

	projectID := uuid.New()
	trace := &models.Trace{ID: uuid.New(), ProjectID: projectID, Name: "search"}
	store.traces[trace.ID] = trace

	req := httptest.NewRequest(http.MethodGet, "/v1/traces/"+trace.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, withSession(req, testSession(projectID, auth.RoleMember)))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var got models.Trace
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.ID != trace.ID {
		t.Errorf("Expected trace %v, got %v", trace.ID, got.ID)
	}
}

func TestTracesHandler_InvalidID(t *testing.T) {
	handler := NewTracesHandler(newFakeTraceStore(), audit.NewRecorder(&fakeAuditStore{}))

	req := httptest.NewRequest(http.MethodDelete, "/v1/traces/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, withSession(req, testSession(uuid.New(), auth.RoleMember)))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}
