package dto

import (
	"time"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/pkg/utils"
)

// SuggestRequest - запрос автодополнения
type SuggestRequest struct {
	Query string `query:"q" json:"q" validate:"required,min=1,max=100"`
}

// NearbyStationsRequest - поиск остановок рядом со станцией или координатой
type NearbyStationsRequest struct {
	ID          int     `json:"id" validate:"omitempty,min=1"`
	Lat         float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon         float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
	MaxDistance int     `json:"max_distance" validate:"omitempty,min=1,max=20000"` // meters
	MaxStations int     `json:"max_stations" validate:"omitempty,min=1,max=500"`
}

// DeparturesRequest - запрос табло станции
type DeparturesRequest struct {
	StationID int  `params:"id" validate:"required,min=1"`
	Limit     int  `query:"limit" validate:"omitempty,min=1,max=200"`
	Equivs    bool `query:"equivs"`
}

// NearbyDeparturesRequest - ближайшие остановки и табло каждой из них
type NearbyDeparturesRequest struct {
	ID          int     `json:"id" validate:"omitempty,min=1"`
	Lat         float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon         float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
	MaxDistance int     `json:"max_distance" validate:"omitempty,min=1,max=20000"` // meters
	MaxStations int     `json:"max_stations" validate:"omitempty,min=1,max=10"`
	Limit       int     `json:"limit" validate:"omitempty,min=1,max=100"`
	Equivs      bool    `json:"equivs"`
}

// Nearby - часть запроса, относящаяся к поиску остановок
func (r NearbyDeparturesRequest) Nearby() NearbyStationsRequest {
	return NearbyStationsRequest{
		ID:          r.ID,
		Lat:         r.Lat,
		Lon:         r.Lon,
		MaxDistance: r.MaxDistance,
		MaxStations: r.MaxStations,
	}
}

// LocationInput - локация в запросе маршрута, координаты в градусах
type LocationInput struct {
	Type  string  `json:"type" validate:"required,oneof=STATION POI ADDRESS COORDINATE ANY"`
	ID    int     `json:"id" validate:"omitempty,min=1"`
	Lat   float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon   float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
	Place string  `json:"place,omitempty"`
	Name  string  `json:"name,omitempty" validate:"omitempty,max=200"`
}

// ToDomain переводит координаты в микроградусы
func (l LocationInput) ToDomain() domain.Location {
	return domain.Location{
		Type:  domain.LocationType(l.Type),
		ID:    l.ID,
		Lat:   utils.ToMicroDegrees(l.Lat),
		Lon:   utils.ToMicroDegrees(l.Lon),
		Place: l.Place,
		Name:  l.Name,
	}
}

// ConnectionsRequest - запрос маршрута
type ConnectionsRequest struct {
	From LocationInput  `json:"from"`
	Via  *LocationInput `json:"via,omitempty" validate:"omitempty"`
	To   LocationInput  `json:"to"`

	// Time - время отправления или прибытия, по умолчанию текущее
	Time *time.Time `json:"time,omitempty"`
	// Arrival - Time задает время прибытия
	Arrival bool `json:"arrival"`

	Products       []string `json:"products,omitempty" validate:"omitempty,dive,oneof=I R S U T B C F P"`
	WalkSpeed      string   `json:"walk_speed,omitempty" validate:"omitempty,oneof=SLOW NORMAL FAST"`
	Accessibility  string   `json:"accessibility,omitempty" validate:"omitempty,oneof=NEUTRAL LIMITED BARRIER_FREE"`
	Options        []string `json:"options,omitempty" validate:"omitempty,dive,oneof=BIKE"`
	NumConnections int      `json:"num_connections" validate:"omitempty,min=1,max=10"`
}

// MoreConnectionsRequest - продолжение поиска по токену
type MoreConnectionsRequest struct {
	Context string `json:"context" validate:"required"`
	Later   bool   `json:"later"`
}
