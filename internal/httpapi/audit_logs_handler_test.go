package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"tracehub/internal/auth"
	"tracehub/internal/models"
	"tracehub/internal/storage"
)

type fakeAuditLister struct {
	entries []*models.AuditLogEntry
	filter  storage.AuditLogFilter
}

func (f *fakeAuditLister) List(ctx context.Context, filter storage.AuditLogFilter) ([]*models.AuditLogEntry, error) {
	f.filter = filter
	return f.entries, nil
}

func TestAuditLogsHandler_List(t *testing.T) {
	lister := &fakeAuditLister{
		entries: []*models.AuditLogEntry{
			{ID: uuid.New(), ResourceType: models.ResourceTrace, Action: "delete"},
		},
	}
	handler := NewAuditLogsHandler(lister)

	projectID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs?userId=user-1&resourceType=trace&limit=10", nil)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, withSession(req, testSession(projectID, auth.RoleViewer)))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if lister.filter.ProjectID != projectID {
		t.Error("Filter must be scoped to the session project")
	}
	if lister.filter.UserID != "user-1" || lister.filter.ResourceType != models.ResourceTrace || lister.filter.Limit != 10 {
		t.Errorf("Query parameters not carried into filter: %+v", lister.filter)
	}

	var entries []*models.AuditLogEntry
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
}

func TestAuditLogsHandler_EmptyResultIsArray(t *testing.T) {
	handler := NewAuditLogsHandler(&fakeAuditLister{})

	req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs", nil)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, withSession(req, testSession(uuid.New(), auth.RoleViewer)))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); body[0] != '[' {
		t.Errorf("Expected a JSON array, got %s", body)
	}
}

func TestAuditLogsHandler_InvalidResourceType(t *testing.T) {
	handler := NewAuditLogsHandler(&fakeAuditLister{})

	req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs?resourceType=spaceship", nil)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, withSession(req, testSession(uuid.New(), auth.RoleViewer)))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestAuditLogsHandler_InvalidLimit(t *testing.T) {
	handler := NewAuditLogsHandler(&fakeAuditLister{})

	req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs?limit=zero", nil)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, withSession(req, testSession(uuid.New(), auth.RoleViewer)))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}
