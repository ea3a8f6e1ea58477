package dto

import "github.com/efa-transit/internal/domain"

// ProviderInfo - запись реестра провайдеров
type ProviderInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Active  bool   `json:"active"`
}

// ProvidersResponse - список провайдеров
type ProvidersResponse struct {
	Providers []ProviderInfo `json:"providers"`
}

// SuggestResponse - ответ автодополнения
type SuggestResponse struct {
	Status    domain.NearbyStatus `json:"status"`
	Locations []domain.Location   `json:"locations"`
	Cached    bool                `json:"cached"`
}

// StationWithDistance - остановка и расстояние до точки запроса
type StationWithDistance struct {
	domain.Location
	Distance *float64 `json:"distance,omitempty"` // meters
}

// NearbyStationsResponse - ответ поиска ближайших остановок
type NearbyStationsResponse struct {
	Header   *domain.ResultHeader  `json:"header,omitempty"`
	Status   domain.NearbyStatus   `json:"status"`
	Stations []StationWithDistance `json:"stations"`
}

// DeparturesResponse - табло станции
type DeparturesResponse struct {
	Header            *domain.ResultHeader       `json:"header,omitempty"`
	Status            domain.DeparturesStatus    `json:"status"`
	StationDepartures []domain.StationDepartures `json:"station_departures"`
}

// TotalDepartures - число отправлений во всех группах
func (r *DeparturesResponse) TotalDepartures() int {
	total := 0
	for _, sd := range r.StationDepartures {
		total += len(sd.Departures)
	}
	return total
}

// StationBoard - табло одной из ближайших остановок
type StationBoard struct {
	Index             int                        `json:"-"`
	Station           StationWithDistance        `json:"station"`
	Status            domain.DeparturesStatus    `json:"status,omitempty"`
	StationDepartures []domain.StationDepartures `json:"station_departures,omitempty"`
	ErrorCode         string                     `json:"error_code,omitempty"`
	Error             string                     `json:"error,omitempty"`
}

// NearbyDeparturesResponse - табло ближайших остановок в порядке удаленности
type NearbyDeparturesResponse struct {
	Status domain.NearbyStatus `json:"status"`
	Boards []StationBoard      `json:"boards"`
}

// ConnectionsResponse - результат поиска маршрута
type ConnectionsResponse struct {
	Header        *domain.ResultHeader     `json:"header,omitempty"`
	Status        domain.ConnectionsStatus `json:"status"`
	From          *domain.Location         `json:"from,omitempty"`
	Via           *domain.Location         `json:"via,omitempty"`
	To            *domain.Location         `json:"to,omitempty"`
	Context       string                   `json:"context,omitempty"`
	Connections   []domain.Connection      `json:"connections"`
	AmbiguousFrom []domain.Location        `json:"ambiguous_from,omitempty"`
	AmbiguousVia  []domain.Location        `json:"ambiguous_via,omitempty"`
	AmbiguousTo   []domain.Location        `json:"ambiguous_to,omitempty"`
}

// NewConnectionsResponse - ответ из результата движка, токен сериализуется
func NewConnectionsResponse(r *domain.QueryConnectionsResult) *ConnectionsResponse {
	resp := &ConnectionsResponse{
		Header:        r.Header,
		Status:        r.Status,
		From:          r.From,
		Via:           r.Via,
		To:            r.To,
		Connections:   r.Connections,
		AmbiguousFrom: r.AmbiguousFrom,
		AmbiguousVia:  r.AmbiguousVia,
		AmbiguousTo:   r.AmbiguousTo,
	}
	if resp.Connections == nil {
		resp.Connections = []domain.Connection{}
	}
	if r.Context.CanQueryLater() {
		resp.Context = r.Context.Token()
	}
	return resp
}
