package repository

import (
	"context"

	"github.com/efa-transit/internal/domain"
)

// TransitRepository определяет запросы к серверу EFA
type TransitRepository interface {
	// QueryNearbyStations ищет остановки рядом с локацией.
	// maxDistance и maxStations равные 0 означают значения по умолчанию сервера.
	QueryNearbyStations(ctx context.Context, location domain.Location, maxDistance, maxStations int) (*domain.NearbyStationsResult, error)

	// QueryDepartures получает табло станции
	QueryDepartures(ctx context.Context, stationID, maxDepartures int, equivs bool) (*domain.QueryDeparturesResult, error)

	// QueryConnections ищет маршруты
	QueryConnections(ctx context.Context, q domain.ConnectionsQuery) (*domain.QueryConnectionsResult, error)

	// QueryMoreConnections продолжает поиск по токену, токен одноразовый
	QueryMoreConnections(ctx context.Context, queryContext *domain.Context, later bool) (*domain.QueryConnectionsResult, error)

	// AutocompleteStations подсказывает локации по тексту
	AutocompleteStations(ctx context.Context, text string) (*domain.SuggestLocationsResult, error)
}
