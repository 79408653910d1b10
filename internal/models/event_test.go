package models

import "testing"

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"trace with payload", Event{Type: EventTrace, Trace: &Trace{Name: "t"}}, false},
		{"observation with payload", Event{Type: EventObservation, Observation: &Observation{}}, false},
		{"score with payload", Event{Type: EventScore, Score: &Score{}}, false},
		{"trace without payload", Event{Type: EventTrace}, true},
		{"observation without payload", Event{Type: EventObservation}, true},
		{"score without payload", Event{Type: EventScore}, true},
		{"unknown type", Event{Type: "metric"}, true},
		{"empty type", Event{}, true},
		{"mismatched payload", Event{Type: EventTrace, Score: &Score{}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
