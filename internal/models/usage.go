package models

import "time"

// UserUsage is the per-user rollup of trace, observation and score activity
// within a project. It is derived at query time and never persisted.
//
// Timestamp fields are nil when the user has no rows on that side of the
// join; token sums and counts default to zero.
type UserUsage struct {
	UserID                string     `db:"user_id" json:"userId"`
	FirstTrace            *time.Time `db:"first_trace" json:"firstTrace,omitempty"`
	LastTrace             *time.Time `db:"last_trace" json:"lastTrace,omitempty"`
	TotalTraces           int64      `db:"total_traces" json:"totalTraces"`
	TotalPromptTokens     int64      `db:"total_prompt_tokens" json:"totalPromptTokens"`
	TotalCompletionTokens int64      `db:"total_completion_tokens" json:"totalCompletionTokens"`
	TotalTokens           int64      `db:"total_tokens" json:"totalTokens"`
	FirstObservation      *time.Time `db:"first_observation" json:"firstObservation,omitempty"`
	LastObservation       *time.Time `db:"last_observation" json:"lastObservation,omitempty"`
	TotalObservations     int64      `db:"total_observations" json:"totalObservations"`
	// LastScore is the most recent score (by timestamp) on any of the user's
	// traces, nil when no qualifying score exists.
	LastScore *Score `db:"-" json:"lastScore,omitempty"`
}

// UserScore is a score joined with the owning trace's user id, produced by
// the ranked last-score query.
type UserScore struct {
	UserID string `db:"user_id" json:"userId"`
	Score
}
