package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamDepartureRequest = "stream:departures:request"
	StreamDepartureDone    = "stream:departures:done"
)

// DepartureRequestEvent - входящее событие на получение табло
type DepartureRequestEvent struct {
	RequestID     uuid.UUID `json:"request_id"`
	StationID     int       `json:"station_id"`
	MaxDepartures int       `json:"max_departures,omitempty"`
	Equivs        bool      `json:"equivs,omitempty"`
}

// Validate проверяет обязательные поля события
func (e *DepartureRequestEvent) Validate() error {
	if e.RequestID == uuid.Nil {
		return fmt.Errorf("request_id is required")
	}
	if e.StationID <= 0 {
		return fmt.Errorf("station_id must be positive, got %d", e.StationID)
	}
	if e.MaxDepartures < 0 {
		return fmt.Errorf("max_departures must not be negative, got %d", e.MaxDepartures)
	}
	return nil
}

// DepartureDoneEvent - результат запроса табло
type DepartureDoneEvent struct {
	RequestID         uuid.UUID           `json:"request_id"`
	StationID         int                 `json:"station_id"`
	Status            DeparturesStatus    `json:"status,omitempty"`
	StationDepartures []StationDepartures `json:"station_departures,omitempty"`
	Error             string              `json:"error,omitempty"`
	Retryable         bool                `json:"retryable,omitempty"`
}

// Failed сообщает, завершился ли запрос ошибкой
func (e *DepartureDoneEvent) Failed() bool {
	return e.Error != ""
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
