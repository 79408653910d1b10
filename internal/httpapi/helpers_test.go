package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"tracehub/internal/auth"
	"tracehub/internal/middleware"
	"tracehub/internal/models"
)

// fakeAuditStore captures recorded audit entries.
type fakeAuditStore struct {
	entries   []*models.AuditLogEntry
	insertErr error
}

func (f *fakeAuditStore) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func testSession(projectID uuid.UUID, role auth.MembershipRole) *auth.Session {
	return &auth.Session{
		UserID:      "user-1",
		ProjectID:   projectID,
		ProjectRole: role,
	}
}

// withSession attaches a session the way the session middleware would.
func withSession(r *http.Request, session *auth.Session) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.SessionKey, session)
	return r.WithContext(ctx)
}

// withAPIKey attaches an API key record the way the key middleware would.
func withAPIKey(r *http.Request, record *auth.APIKeyRecord) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.APIKeyRecordKey, record)
	return r.WithContext(ctx)
}
