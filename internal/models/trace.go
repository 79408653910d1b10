package models

import (
	"time"

	"github.com/google/uuid"
)

// Trace represents one top-level instrumented unit of work, optionally
// attributed to an end-user of the producing application.
type Trace struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProjectID uuid.UUID `db:"project_id" json:"projectId"`
	// UserID is the end-user identifier supplied by the producer; nil when the
	// trace is not attributed to a user.
	UserID    *string   `db:"user_id" json:"userId,omitempty"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Name      string    `db:"name" json:"name"`
	Metadata  JSONB     `db:"metadata" json:"metadata,omitempty"`
}
