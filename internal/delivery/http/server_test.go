package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efa-transit/internal/config"
	httpDelivery "github.com/efa-transit/internal/delivery/http"
	"github.com/efa-transit/internal/delivery/http/handler"
	"github.com/efa-transit/internal/delivery/http/middleware"
	"github.com/efa-transit/internal/domain"
	apperrors "github.com/efa-transit/internal/pkg/errors"
	"github.com/efa-transit/internal/usecase"
	"github.com/efa-transit/internal/usecase/dto"
)

const commandURI = "http://efa/XSLT_TRIP_REQUEST2?sessionID=VRR_TRIP_42&requestID=1"

var hbf = domain.NewStation(20018235, "Düsseldorf", "Hauptbahnhof", 51219893, 6794149)

// fakeTransit - сервер EFA с заранее заданными ответами
type fakeTransit struct {
	mu          sync.Mutex
	suggestions int
	lastQuery   domain.ConnectionsQuery
}

func (f *fakeTransit) QueryNearbyStations(_ context.Context, location domain.Location, _, _ int) (*domain.NearbyStationsResult, error) {
	if location.ID == 1 {
		return &domain.NearbyStationsResult{Status: domain.NearbyStatusInvalidStation}, nil
	}
	return &domain.NearbyStationsResult{
		Status:   domain.NearbyStatusOK,
		Stations: []domain.Location{hbf},
	}, nil
}

func (f *fakeTransit) QueryDepartures(_ context.Context, stationID, _ int, _ bool) (*domain.QueryDeparturesResult, error) {
	if stationID == 503 {
		return nil, &apperrors.IOError{URI: "http://efa/XSLT_DM_REQUEST", StatusCode: 503}
	}
	return &domain.QueryDeparturesResult{
		Status: domain.DeparturesStatusOK,
		StationDepartures: []domain.StationDepartures{{
			Location: hbf,
			Departures: []domain.Departure{{
				PlannedTime: time.Date(2012, 3, 14, 10, 5, 0, 0, time.UTC),
				Line:        domain.Line{ID: "ddb:92E01: :H:j12", Product: domain.ProductSuburbanTrain, Name: "S1"},
				Position:    "9",
			}},
		}},
	}, nil
}

func (f *fakeTransit) QueryConnections(_ context.Context, q domain.ConnectionsQuery) (*domain.QueryConnectionsResult, error) {
	f.mu.Lock()
	f.lastQuery = q
	f.mu.Unlock()
	return &domain.QueryConnectionsResult{
		Status:  domain.ConnectionsStatusOK,
		From:    &q.From,
		To:      &q.To,
		Context: domain.NewContext(commandURI),
	}, nil
}

func (f *fakeTransit) QueryMoreConnections(_ context.Context, queryContext *domain.Context, _ bool) (*domain.QueryConnectionsResult, error) {
	if !queryContext.Consume() {
		return nil, &apperrors.SessionExpiredError{}
	}
	return &domain.QueryConnectionsResult{
		Status:  domain.ConnectionsStatusOK,
		Context: domain.NewContext(queryContext.CommandURI() + "&more"),
	}, nil
}

func (f *fakeTransit) AutocompleteStations(_ context.Context, _ string) (*domain.SuggestLocationsResult, error) {
	f.mu.Lock()
	f.suggestions++
	f.mu.Unlock()
	return &domain.SuggestLocationsResult{
		Status:    domain.NearbyStatusOK,
		Locations: []domain.Location{hbf},
	}, nil
}

// memoryCache - CacheRepository в памяти
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[key], nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok, nil
}

func (m *memoryCache) GetSuggestions(ctx context.Context, provider, text string) (*domain.SuggestLocationsResult, error) {
	data, _ := m.Get(ctx, "suggest:"+provider+":"+strings.ToLower(text))
	if data == nil {
		return nil, nil
	}
	var result domain.SuggestLocationsResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (m *memoryCache) SetSuggestions(ctx context.Context, provider, text string, result *domain.SuggestLocationsResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return m.Set(ctx, "suggest:"+provider+":"+strings.ToLower(text), data, ttl)
}

func (m *memoryCache) MarkContextConsumed(_ context.Context, token string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items["consumed:"+token]; ok {
		return false, nil
	}
	m.items["consumed:"+token] = []byte{1}
	return true, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func newTestServer(t *testing.T) (*httpDelivery.Server, *fakeTransit) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		EFA:    config.EFAConfig{Provider: "vrr", Timeout: time.Second},
	}
	logger := zap.NewNop()
	transit := &fakeTransit{}

	transitUC := usecase.NewTransitUseCase(transit, newMemoryCache(), logger, "vrr", time.Hour, time.Hour)
	boardUC := usecase.NewBoardUseCase(transit, logger, usecase.BoardConfig{Timeout: time.Second, Concurrency: 2})
	providers := []dto.ProviderInfo{
		{ID: "vrr", Name: "Verkehrsverbund Rhein-Ruhr", BaseURL: "http://app.vrr.de/standard/", Active: true},
		{ID: "mvv", Name: "Münchner Verkehrs- und Tarifverbund", BaseURL: "http://efa.mvv-muenchen.de/mobile/"},
	}

	server := httpDelivery.NewServer(cfg, logger, nil,
		handler.NewTransitHandler(transitUC, boardUC, "vrr", logger),
		handler.NewProviderHandler(providers, "vrr"),
	)
	return server, transit
}

func doRequest(t *testing.T, server *httpDelivery.Server, method, target, body string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := server.App().Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp, env
}

func TestServer_Health(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp, err := server.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "vrr", body["provider"])
}

func TestServer_RequestID(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("generated", func(t *testing.T) {
		resp, env := doRequest(t, server, http.MethodGet, "/api/v1/providers", "")
		id := resp.Header.Get(middleware.HeaderRequestID)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, env.Meta["request_id"])
	})

	t.Run("propagated", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
		req.Header.Set(middleware.HeaderRequestID, id)

		resp, err := server.App().Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, id, resp.Header.Get(middleware.HeaderRequestID))
	})
}

func TestServer_Providers(t *testing.T) {
	server, _ := newTestServer(t)

	resp, env := doRequest(t, server, http.MethodGet, "/api/v1/providers", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var data dto.ProvidersResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Providers, 2)
	assert.True(t, data.Providers[0].Active)
	assert.Equal(t, float64(2), env.Meta["total"])
}

func TestServer_Suggest(t *testing.T) {
	server, transit := newTestServer(t)

	resp, env := doRequest(t, server, http.MethodGet, "/api/v1/locations/suggest?q=Hbf", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, env.Meta["cached"])

	var data dto.SuggestResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Locations, 1)
	assert.Equal(t, hbf, data.Locations[0])

	_, env = doRequest(t, server, http.MethodGet, "/api/v1/locations/suggest?q=Hbf", "")
	assert.Equal(t, true, env.Meta["cached"])
	assert.Equal(t, 1, transit.suggestions)

	resp, env = doRequest(t, server, http.MethodGet, "/api/v1/locations/suggest", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperrors.ErrInvalidRequest.Code, env.Error.Code)
}

func TestServer_Departures(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("board", func(t *testing.T) {
		resp, env := doRequest(t, server, http.MethodGet, "/api/v1/stations/20018235/departures?limit=10&equivs=true", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OK", env.Meta["status"])
		assert.Equal(t, float64(1), env.Meta["total"])

		var data struct {
			StationDepartures []struct {
				Departures []struct {
					Line struct {
						Product string `json:"product"`
						Name    string `json:"name"`
					} `json:"line"`
					Position string `json:"position"`
				} `json:"departures"`
			} `json:"station_departures"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.StationDepartures, 1)
		dep := data.StationDepartures[0].Departures[0]
		assert.Equal(t, "S", dep.Line.Product)
		assert.Equal(t, "S1", dep.Line.Name)
		assert.Equal(t, "9", dep.Position)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, env := doRequest(t, server, http.MethodGet, "/api/v1/stations/abc/departures", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, apperrors.ErrInvalidRequest.Code, env.Error.Code)
		assert.NotEmpty(t, env.RequestID)
	})

	t.Run("limit out of range", func(t *testing.T) {
		resp, env := doRequest(t, server, http.MethodGet, "/api/v1/stations/20018235/departures?limit=1000", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.Error.Details, "DeparturesRequest.Limit")
	})

	t.Run("upstream down", func(t *testing.T) {
		resp, env := doRequest(t, server, http.MethodGet, "/api/v1/stations/503/departures", "")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, apperrors.ErrUpstreamUnavailable.Code, env.Error.Code)
	})
}

func TestServer_NearbyDepartures(t *testing.T) {
	server, _ := newTestServer(t)

	resp, env := doRequest(t, server, http.MethodPost, "/api/v1/stations/nearby/departures", `{"lat":51.219893,"lon":6.794149,"limit":5}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var data dto.NearbyDeparturesResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Boards, 1)
	assert.Equal(t, hbf.ID, data.Boards[0].Station.ID)
	assert.Equal(t, domain.DeparturesStatusOK, data.Boards[0].Status)

	resp, env = doRequest(t, server, http.MethodPost, "/api/v1/stations/nearby", `{"id":1}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "INVALID_STATION", env.Meta["status"])

	resp, env = doRequest(t, server, http.MethodPost, "/api/v1/stations/nearby", `{"lat":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperrors.ErrInvalidRequest.Code, env.Error.Code)
}

func TestServer_ConnectionsAndMore(t *testing.T) {
	server, transit := newTestServer(t)

	body := `{
		"from": {"type": "STATION", "id": 20018235},
		"to": {"type": "ANY", "name": "Ratingen Mitte"},
		"time": "2012-03-14T09:05:00+01:00",
		"products": ["S", "U"],
		"walk_speed": "SLOW"
	}`
	resp, env := doRequest(t, server, http.MethodPost, "/api/v1/connections", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data dto.ConnectionsResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, domain.NewContext(commandURI).Token(), data.Context)
	assert.True(t, transit.lastQuery.Departing)
	assert.Equal(t, domain.WalkSpeedSlow, transit.lastQuery.WalkSpeed)
	assert.Equal(t, []domain.Product{domain.ProductSuburbanTrain, domain.ProductSubway}, transit.lastQuery.Products)

	more := `{"context":"` + data.Context + `","later":true}`
	resp, env = doRequest(t, server, http.MethodPost, "/api/v1/connections/more", more)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var next dto.ConnectionsResponse
	require.NoError(t, json.Unmarshal(env.Data, &next))
	assert.NotEmpty(t, next.Context)
	assert.NotEqual(t, data.Context, next.Context)

	resp, env = doRequest(t, server, http.MethodPost, "/api/v1/connections/more", more)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	assert.Equal(t, apperrors.ErrSessionExpired.Code, env.Error.Code)

	resp, env = doRequest(t, server, http.MethodPost, "/api/v1/connections", `{"from":{"type":"TRAM"},"to":{"type":"ANY","name":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperrors.ErrInvalidRequest.Code, env.Error.Code)
}

func TestServer_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	resp, env := doRequest(t, server, http.MethodGet, "/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "HTTP_ERROR", env.Error.Code)
}
