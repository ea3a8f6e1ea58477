package domain

import (
	"encoding/json"
	"time"
)

// Stop - остановка на маршруте с плановым и прогнозным временем
type Stop struct {
	Location           Location   `json:"location"`
	PlannedArrival     *time.Time `json:"planned_arrival,omitempty"`
	PredictedArrival   *time.Time `json:"predicted_arrival,omitempty"`
	ArrivalPosition    string     `json:"arrival_position,omitempty"`
	PlannedDeparture   *time.Time `json:"planned_departure,omitempty"`
	PredictedDeparture *time.Time `json:"predicted_departure,omitempty"`
	DeparturePosition  string     `json:"departure_position,omitempty"`
}

// DepartureTime - прогнозное время отправления, если есть, иначе плановое
func (s Stop) DepartureTime() *time.Time {
	if s.PredictedDeparture != nil {
		return s.PredictedDeparture
	}
	return s.PlannedDeparture
}

// ArrivalTime - прогнозное время прибытия, если есть, иначе плановое
func (s Stop) ArrivalTime() *time.Time {
	if s.PredictedArrival != nil {
		return s.PredictedArrival
	}
	return s.PlannedArrival
}

// Part - участок маршрута: *Footway или *Trip
type Part interface {
	DepartureLocation() Location
	ArrivalLocation() Location
	PathPoints() []Point
}

// Footway - пеший участок
type Footway struct {
	Min      int      `json:"min"`
	Distance int      `json:"distance,omitempty"`
	Transfer bool     `json:"transfer"`
	From     Location `json:"from"`
	To       Location `json:"to"`
	Path     []Point  `json:"path,omitempty"`
}

func (f *Footway) DepartureLocation() Location { return f.From }
func (f *Footway) ArrivalLocation() Location   { return f.To }
func (f *Footway) PathPoints() []Point         { return f.Path }

func (f *Footway) MarshalJSON() ([]byte, error) {
	type footway Footway
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*footway
	}{Kind: "footway", footway: (*footway)(f)})
}

// Trip - участок на транспорте
type Trip struct {
	Line              Line      `json:"line"`
	Destination       *Location `json:"destination,omitempty"`
	Departure         Stop      `json:"departure"`
	Arrival           Stop      `json:"arrival"`
	IntermediateStops []Stop    `json:"intermediate_stops,omitempty"`
	Path              []Point   `json:"path,omitempty"`
	Message           string    `json:"message,omitempty"`
}

func (t *Trip) DepartureLocation() Location { return t.Departure.Location }
func (t *Trip) ArrivalLocation() Location   { return t.Arrival.Location }
func (t *Trip) PathPoints() []Point         { return t.Path }

func (t *Trip) MarshalJSON() ([]byte, error) {
	type trip Trip
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*trip
	}{Kind: "trip", trip: (*trip)(t)})
}

// FareType - категория пассажира
type FareType string

const (
	FareTypeAdult    FareType = "ADULT"
	FareTypeChild    FareType = "CHILD"
	FareTypeYouth    FareType = "YOUTH"
	FareTypeStudent  FareType = "STUDENT"
	FareTypeMilitary FareType = "MILITARY"
	FareTypeSenior   FareType = "SENIOR"
	FareTypeDisabled FareType = "DISABLED"
)

// ParseFareType распознает категорию пассажира
func ParseFareType(s string) (FareType, bool) {
	switch t := FareType(s); t {
	case FareTypeAdult, FareTypeChild, FareTypeYouth, FareTypeStudent,
		FareTypeMilitary, FareTypeSenior, FareTypeDisabled:
		return t, true
	}
	return "", false
}

// Fare - тариф, полученный от сервера (не вычисляется)
type Fare struct {
	Network  string   `json:"network"`
	Type     FareType `json:"type"`
	Currency string   `json:"currency"`
	Amount   float64  `json:"amount"`
	UnitName string   `json:"unit_name,omitempty"`
	Units    string   `json:"units,omitempty"`
}

// Connection - один вариант маршрута
type Connection struct {
	ID         string   `json:"id"`
	From       Location `json:"from"`
	To         Location `json:"to"`
	Parts      []Part   `json:"parts"`
	Fares      []Fare   `json:"fares,omitempty"`
	NumChanges int      `json:"num_changes"`
}

// FirstDepartureTime - время отправления первого транспортного участка
func (c Connection) FirstDepartureTime() *time.Time {
	for _, p := range c.Parts {
		if t, ok := p.(*Trip); ok {
			return t.Departure.DepartureTime()
		}
	}
	return nil
}

// LastArrivalTime - время прибытия последнего транспортного участка
func (c Connection) LastArrivalTime() *time.Time {
	for i := len(c.Parts) - 1; i >= 0; i-- {
		if t, ok := c.Parts[i].(*Trip); ok {
			return t.Arrival.ArrivalTime()
		}
	}
	return nil
}

// ConnectionsStatus - статус поиска маршрута
type ConnectionsStatus string

const (
	ConnectionsStatusOK            ConnectionsStatus = "OK"
	ConnectionsStatusAmbiguous     ConnectionsStatus = "AMBIGUOUS"
	ConnectionsStatusNoConnections ConnectionsStatus = "NO_CONNECTIONS"
	ConnectionsStatusInvalidDate   ConnectionsStatus = "INVALID_DATE"
	ConnectionsStatusUnknownFrom   ConnectionsStatus = "UNKNOWN_FROM"
	ConnectionsStatusUnknownVia    ConnectionsStatus = "UNKNOWN_VIA"
	ConnectionsStatusUnknownTo     ConnectionsStatus = "UNKNOWN_TO"
	ConnectionsStatusServiceDown   ConnectionsStatus = "SERVICE_DOWN"
)

// QueryConnectionsResult - результат поиска маршрута
type QueryConnectionsResult struct {
	Header        *ResultHeader     `json:"header,omitempty"`
	Status        ConnectionsStatus `json:"status"`
	URI           string            `json:"-"`
	From          *Location         `json:"from,omitempty"`
	Via           *Location         `json:"via,omitempty"`
	To            *Location         `json:"to,omitempty"`
	Context       *Context          `json:"context,omitempty"`
	Connections   []Connection      `json:"connections"`
	AmbiguousFrom []Location        `json:"ambiguous_from,omitempty"`
	AmbiguousVia  []Location        `json:"ambiguous_via,omitempty"`
	AmbiguousTo   []Location        `json:"ambiguous_to,omitempty"`
}
