package models

import "fmt"

// EventType discriminates ingested event envelopes
type EventType string

const (
	EventTrace       EventType = "trace"
	EventObservation EventType = "observation"
	EventScore       EventType = "score"
)

// Event is the envelope producers push through the ingest API. Exactly one
// of the payload fields matching Type is set.
type Event struct {
	Type        EventType    `json:"type"`
	Trace       *Trace       `json:"trace,omitempty"`
	Observation *Observation `json:"observation,omitempty"`
	Score       *Score       `json:"score,omitempty"`
}

// Validate checks that the envelope carries the payload its type announces.
func (e *Event) Validate() error {
	switch e.Type {
	case EventTrace:
		if e.Trace == nil {
			return fmt.Errorf("event type %q without trace payload", e.Type)
		}
	case EventObservation:
		if e.Observation == nil {
			return fmt.Errorf("event type %q without observation payload", e.Type)
		}
	case EventScore:
		if e.Score == nil {
			return fmt.Errorf("event type %q without score payload", e.Type)
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}
