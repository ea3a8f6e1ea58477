package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDepartureRequestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   DepartureRequestEvent
		wantErr bool
	}{
		{
			name:  "valid event",
			event: DepartureRequestEvent{RequestID: uuid.New(), StationID: 20018235, MaxDepartures: 10},
		},
		{
			name:  "unlimited departures",
			event: DepartureRequestEvent{RequestID: uuid.New(), StationID: 20018235, Equivs: true},
		},
		{
			name:    "missing request id",
			event:   DepartureRequestEvent{StationID: 20018235},
			wantErr: true,
		},
		{
			name:    "missing station",
			event:   DepartureRequestEvent{RequestID: uuid.New()},
			wantErr: true,
		},
		{
			name:    "negative limit",
			event:   DepartureRequestEvent{RequestID: uuid.New(), StationID: 1, MaxDepartures: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDepartureDoneEvent_Failed(t *testing.T) {
	assert.False(t, (&DepartureDoneEvent{Status: DeparturesStatusOK}).Failed())
	assert.True(t, (&DepartureDoneEvent{Error: "service down"}).Failed())
}
