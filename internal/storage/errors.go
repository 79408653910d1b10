package storage

import "errors"

var (
	// ErrTraceNotFound is returned when a trace is not found
	ErrTraceNotFound = errors.New("trace not found")

	// ErrObservationNotFound is returned when an observation is not found
	ErrObservationNotFound = errors.New("observation not found")

	// ErrScoreNotFound is returned when a score is not found
	ErrScoreNotFound = errors.New("score not found")

	// ErrAPIKeyNotFound is returned when an API key is not found
	ErrAPIKeyNotFound = errors.New("API key not found")
)
