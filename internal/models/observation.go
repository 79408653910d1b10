package models

import (
	"time"

	"github.com/google/uuid"
)

// Observation represents one sub-step within a trace, carrying token usage.
// Token counts are producer-reported; total_tokens is stored as given, not
// recomputed from prompt + completion.
type Observation struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ProjectID        uuid.UUID `db:"project_id" json:"projectId"`
	TraceID          uuid.UUID `db:"trace_id" json:"traceId"`
	StartTime        time.Time `db:"start_time" json:"startTime"`
	PromptTokens     int64     `db:"prompt_tokens" json:"promptTokens"`
	CompletionTokens int64     `db:"completion_tokens" json:"completionTokens"`
	TotalTokens      int64     `db:"total_tokens" json:"totalTokens"`
}
