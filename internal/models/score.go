package models

import (
	"time"

	"github.com/google/uuid"
)

// Score represents one evaluation attached to a trace and optionally to a
// single observation within it. Scores with a nil TraceID are kept but never
// surface in per-user aggregation.
type Score struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	TraceID       *uuid.UUID `db:"trace_id" json:"traceId,omitempty"`
	ObservationID *uuid.UUID `db:"observation_id" json:"observationId,omitempty"`
	Timestamp     time.Time  `db:"timestamp" json:"timestamp"`
	Name          string     `db:"name" json:"name"`
	Value         float64    `db:"value" json:"value"`
	Comment       *string    `db:"comment" json:"comment,omitempty"`
}
