// Package audit records one immutable log entry per mutating operation:
// actor, role at the time of the action, and optional before/after
// snapshots. Callers record after their mutation has committed; a failed
// audit write never rolls the mutation back.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tracehub/internal/auth"
	"tracehub/internal/models"
)

var (
	// ErrMissingActor is returned when neither actor context shape is
	// populated. Writing an entry without actor identity is a programming
	// error, not a degraded write.
	ErrMissingActor = errors.New("audit entry has no actor context")

	// ErrInvalidResourceType is returned for resource types outside the
	// fixed set
	ErrInvalidResourceType = errors.New("invalid audit resource type")
)

// Actor is the explicit actor context shape: the caller already resolved
// identity, project and role.
type Actor struct {
	ProjectID       uuid.UUID
	UserID          string
	UserProjectRole auth.MembershipRole
}

// Entry describes one mutating operation to record. Exactly one of Actor
// and Session must be set; Record normalizes both shapes to the same stored
// fields.
type Entry struct {
	ResourceType models.ResourceType
	ResourceID   string
	Action       string

	Actor   *Actor
	Session *auth.Session

	// Before and After are the resource snapshots around the mutation. They
	// are serialized to JSON for storage; nil stays absent.
	Before any
	After  any
}

// Store is the append surface the recorder writes to. Implemented by
// storage.AuditLogRepository.
type Store interface {
	Insert(ctx context.Context, entry *models.AuditLogEntry) error
}

// Recorder normalizes and persists audit entries. Stateless; one insert per
// call with no cross-call coordination.
type Recorder struct {
	store Store
}

// NewRecorder creates a new audit recorder
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record writes one audit log entry. It must be called after the guarded
// mutation is durably committed. A store failure surfaces as an audit-write
// failure; the caller decides whether to alert, but the mutation stands.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	normalized, err := normalize(entry)
	if err != nil {
		return err
	}

	if err := r.store.Insert(ctx, normalized); err != nil {
		return fmt.Errorf("audit write failed: %w", err)
	}

	return nil
}

// normalize resolves the actor context shape and serializes snapshots.
func normalize(entry Entry) (*models.AuditLogEntry, error) {
	if !entry.ResourceType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResourceType, entry.ResourceType)
	}

	var (
		projectID uuid.UUID
		userID    string
		role      auth.MembershipRole
	)

	switch {
	case entry.Actor != nil:
		projectID = entry.Actor.ProjectID
		userID = entry.Actor.UserID
		role = entry.Actor.UserProjectRole
	case entry.Session != nil:
		projectID = entry.Session.ProjectID
		userID = entry.Session.UserID
		role = entry.Session.ProjectRole
	default:
		return nil, ErrMissingActor
	}

	if userID == "" || projectID == uuid.Nil {
		return nil, ErrMissingActor
	}

	before, err := marshalSnapshot(entry.Before)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize before snapshot: %w", err)
	}
	after, err := marshalSnapshot(entry.After)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize after snapshot: %w", err)
	}

	return &models.AuditLogEntry{
		ProjectID:       projectID,
		UserID:          userID,
		UserProjectRole: role.String(),
		ResourceType:    entry.ResourceType,
		ResourceID:      entry.ResourceID,
		Action:          entry.Action,
		Before:          before,
		After:           after,
	}, nil
}

// marshalSnapshot serializes a snapshot to a JSON string. A nil snapshot
// stays nil so the stored column is NULL, never the literal "null".
func marshalSnapshot(snapshot any) (*string, error) {
	if snapshot == nil {
		return nil, nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	s := string(data)
	return &s, nil
}
