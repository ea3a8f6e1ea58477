package domain

import "time"

// ResultHeader - идентификация сервера, его часы и сессия
type ResultHeader struct {
	ServerProduct string    `json:"server_product"`
	ServerVersion string    `json:"server_version,omitempty"`
	ServerTime    time.Time `json:"server_time,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
}

// Departure - одно отправление со станции
type Departure struct {
	PlannedTime   time.Time  `json:"planned_time"`
	PredictedTime *time.Time `json:"predicted_time,omitempty"`
	Line          Line       `json:"line"`
	Position      string     `json:"position,omitempty"`
	Destination   *Location  `json:"destination,omitempty"`
	Messages      []string   `json:"messages,omitempty"`
}

// Time - прогнозное время, если известно, иначе плановое
func (d Departure) Time() time.Time {
	if d.PredictedTime != nil {
		return *d.PredictedTime
	}
	return d.PlannedTime
}

// StationDepartures - табло одной физической остановки
type StationDepartures struct {
	Location   Location          `json:"location"`
	Departures []Departure       `json:"departures"`
	Lines      []LineDestination `json:"lines,omitempty"`
}

// DeparturesStatus - статус запроса табло
type DeparturesStatus string

const (
	DeparturesStatusOK             DeparturesStatus = "OK"
	DeparturesStatusInvalidStation DeparturesStatus = "INVALID_STATION"
	DeparturesStatusServiceDown    DeparturesStatus = "SERVICE_DOWN"
)

// QueryDeparturesResult - результат запроса табло
type QueryDeparturesResult struct {
	Header            *ResultHeader       `json:"header,omitempty"`
	Status            DeparturesStatus    `json:"status"`
	StationDepartures []StationDepartures `json:"station_departures,omitempty"`
}

// FindStationDepartures ищет табло по идентификатору остановки
func (r *QueryDeparturesResult) FindStationDepartures(stationID int) *StationDepartures {
	for i := range r.StationDepartures {
		if r.StationDepartures[i].Location.ID == stationID {
			return &r.StationDepartures[i]
		}
	}
	return nil
}

// NearbyStatus - статус поиска ближайших станций
type NearbyStatus string

const (
	NearbyStatusOK             NearbyStatus = "OK"
	NearbyStatusInvalidStation NearbyStatus = "INVALID_STATION"
	NearbyStatusServiceDown    NearbyStatus = "SERVICE_DOWN"
)

// NearbyStationsResult - результат поиска ближайших станций
type NearbyStationsResult struct {
	Header   *ResultHeader `json:"header,omitempty"`
	Status   NearbyStatus  `json:"status"`
	Stations []Location    `json:"stations,omitempty"`
}

// SuggestLocationsResult - результат автодополнения, порядок задается сервером
type SuggestLocationsResult struct {
	Header    *ResultHeader `json:"header,omitempty"`
	Status    NearbyStatus  `json:"status"`
	Locations []Location    `json:"locations"`
}
