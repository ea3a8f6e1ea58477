package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/efa-transit/internal/domain"
)

// MockTransitRepository is a mock of TransitRepository
type MockTransitRepository struct {
	mock.Mock
}

func (m *MockTransitRepository) QueryNearbyStations(ctx context.Context, location domain.Location, maxDistance, maxStations int) (*domain.NearbyStationsResult, error) {
	args := m.Called(ctx, location, maxDistance, maxStations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NearbyStationsResult), args.Error(1)
}

func (m *MockTransitRepository) QueryDepartures(ctx context.Context, stationID, maxDepartures int, equivs bool) (*domain.QueryDeparturesResult, error) {
	args := m.Called(ctx, stationID, maxDepartures, equivs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryDeparturesResult), args.Error(1)
}

func (m *MockTransitRepository) QueryConnections(ctx context.Context, q domain.ConnectionsQuery) (*domain.QueryConnectionsResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryConnectionsResult), args.Error(1)
}

func (m *MockTransitRepository) QueryMoreConnections(ctx context.Context, queryContext *domain.Context, later bool) (*domain.QueryConnectionsResult, error) {
	args := m.Called(ctx, queryContext, later)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryConnectionsResult), args.Error(1)
}

func (m *MockTransitRepository) AutocompleteStations(ctx context.Context, text string) (*domain.SuggestLocationsResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SuggestLocationsResult), args.Error(1)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetSuggestions(ctx context.Context, provider, text string) (*domain.SuggestLocationsResult, error) {
	args := m.Called(ctx, provider, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SuggestLocationsResult), args.Error(1)
}

func (m *MockCacheRepository) SetSuggestions(ctx context.Context, provider, text string, result *domain.SuggestLocationsResult, ttl time.Duration) error {
	args := m.Called(ctx, provider, text, result, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) MarkContextConsumed(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, token, ttl)
	return args.Bool(0), args.Error(1)
}
