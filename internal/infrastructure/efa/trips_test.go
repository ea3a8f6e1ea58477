package efa

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/efa-transit/internal/domain"
	apperrors "github.com/efa-transit/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tripQuery() domain.ConnectionsQuery {
	return domain.ConnectionsQuery{
		From:      domain.NewStation(20018235, "Düsseldorf", "Hauptbahnhof", 0, 0),
		To:        domain.NewStation(20021123, "Ratingen", "Mitte", 0, 0),
		Time:      time.Date(2012, 3, 14, 10, 0, 0, 0, time.UTC),
		Departing: true,
	}
}

func TestClient_QueryConnections(t *testing.T) {
	loc := berlin(t)
	at := func(hour, minute int) time.Time {
		return time.Date(2012, 3, 14, hour, minute, 0, 0, loc)
	}

	client, fake := newTestClient(t, map[string]string{
		DefaultTripEndpoint: "trip.xml",
	}, nil)

	result, err := client.QueryConnections(context.Background(), tripQuery())
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionsStatusOK, result.Status)
	assert.Equal(t, "VRR_TRIP_42", result.Header.SessionID)
	assertTime(t, time.Date(2012, 3, 14, 9, 58, 12, 0, loc), result.Header.ServerTime)
	assert.Equal(t, http.MethodGet, fake.lastRequest().method)

	require.NotNil(t, result.From)
	assert.Equal(t, 20018235, result.From.ID)
	require.NotNil(t, result.To)
	assert.Equal(t, "Mitte", result.To.Name)
	assert.Nil(t, result.Via)

	require.NotNil(t, result.Context)
	assert.True(t, result.Context.CanQueryLater())
	assert.True(t, strings.HasSuffix(result.Context.CommandURI(), "XSLT_TRIP_REQUEST2?sessionID=VRR_TRIP_42&requestID=1&coordListOutputFormat=STRING&calcNumberOfTrips=4"))

	// отмененный маршрут отбрасывается
	require.Len(t, result.Connections, 2)

	t.Run("footways are merged", func(t *testing.T) {
		conn := result.Connections[0]
		assert.Equal(t, "0-1", conn.ID)
		assert.Equal(t, 1, conn.NumChanges)
		assert.Equal(t, 20018235, conn.From.ID)
		assert.Equal(t, 20021124, conn.To.ID)

		require.Len(t, conn.Parts, 3)
		walk, ok := conn.Parts[0].(*domain.Footway)
		require.True(t, ok)
		assert.Equal(t, 5, walk.Min)
		assert.Equal(t, 230, walk.Distance)
		assert.False(t, walk.Transfer)
		assert.Equal(t, 20018235, walk.From.ID)
		assert.Equal(t, 20018235, walk.To.ID)
		assert.Len(t, walk.Path, 3)

		last, ok := conn.Parts[2].(*domain.Footway)
		require.True(t, ok)
		assert.Equal(t, 4, last.Min)
		assert.Equal(t, 300, last.Distance)
	})

	t.Run("public transport leg", func(t *testing.T) {
		trip, ok := result.Connections[0].Parts[1].(*domain.Trip)
		require.True(t, ok)

		assert.Equal(t, "S6", trip.Line.Label())
		assert.Equal(t, "ddb:92S06: :H:j12", trip.Line.ID)
		assert.True(t, trip.Line.HasAttr(domain.LineAttrWheelChairAccess))
		assert.True(t, trip.Line.HasAttr(domain.LineAttrLowFloor))
		require.NotNil(t, trip.Destination)
		assert.Equal(t, 20009289, trip.Destination.ID)
		assert.Equal(t, "Essen Hbf", trip.Destination.Name)

		assert.Equal(t, "10", trip.Departure.DeparturePosition)
		assertTimePtr(t, at(10, 5), trip.Departure.PlannedDeparture)
		assertTimePtr(t, at(10, 7), trip.Departure.PredictedDeparture)
		assert.Equal(t, "2", trip.Arrival.ArrivalPosition)
		assertTimePtr(t, at(10, 20), trip.Arrival.PlannedArrival)
		assertTimePtr(t, at(10, 23), trip.Arrival.PredictedArrival)

		require.Len(t, trip.IntermediateStops, 1)
		stop := trip.IntermediateStops[0]
		assert.Equal(t, 20018031, stop.Location.ID)
		assert.Equal(t, "Wehrhahn", stop.Location.Name)
		assert.Equal(t, "1", stop.ArrivalPosition)
		assertTimePtr(t, at(10, 10), stop.PlannedArrival)
		assertTimePtr(t, at(10, 13), stop.PredictedArrival)
		assertTimePtr(t, at(10, 11), stop.PlannedDeparture)
		assertTimePtr(t, at(10, 13), stop.PredictedDeparture)

		assert.Len(t, trip.Path, 3)
		assertTimePtr(t, at(10, 7), result.Connections[0].FirstDepartureTime())
		assertTimePtr(t, at(10, 23), result.Connections[0].LastArrivalTime())
	})

	t.Run("fares", func(t *testing.T) {
		fares := result.Connections[0].Fares
		require.Len(t, fares, 3)
		assert.Equal(t, domain.Fare{Network: "vrr", Type: domain.FareTypeAdult, Currency: "EUR", Amount: 2.40, UnitName: "TW", Units: "A"}, fares[0])
		assert.Equal(t, domain.FareTypeChild, fares[1].Type)
		assert.Equal(t, domain.FareTypeStudent, fares[2].Type)
		assert.InDelta(t, 1.90, fares[2].Amount, 1e-9)
	})

	t.Run("on-demand leg after guaranteed connection", func(t *testing.T) {
		conn := result.Connections[1]
		assert.Equal(t, "2-1", conn.ID)
		assert.Equal(t, 20018240, conn.From.ID)
		require.Len(t, conn.Parts, 1)

		trip, ok := conn.Parts[0].(*domain.Trip)
		require.True(t, ok)
		assert.Equal(t, domain.ProductBus, trip.Line.Product)
		assert.Equal(t, "AST", trip.Line.Name)
		assert.Equal(t, "vrr:20AST12::R:j12", trip.Line.ID)
		assert.Equal(t, "RufTaxi: bitte 30 Minuten vorher anmelden", trip.Message)
		assert.Equal(t, "3A", trip.Departure.DeparturePosition)
		assert.Nil(t, trip.Departure.PredictedDeparture)
		assertTimePtr(t, at(10, 50), trip.Arrival.PlannedArrival)
		assertTimePtr(t, at(10, 52), trip.Arrival.PredictedArrival)
		assert.Empty(t, conn.Fares)
	})
}

func TestClient_QueryConnections_RouteIndexDisabled(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		DefaultTripEndpoint: "trip.xml",
	}, func(cfg *ProviderConfig) { cfg.UseRouteIndexAsID = false })

	result, err := client.QueryConnections(context.Background(), tripQuery())
	require.NoError(t, err)
	require.NotEmpty(t, result.Connections)
	assert.Empty(t, result.Connections[0].ID)
}

func TestClient_QueryConnections_Statuses(t *testing.T) {
	tests := []struct {
		fixture string
		want    domain.ConnectionsStatus
	}{
		{"trip_no_connections.xml", domain.ConnectionsStatusNoConnections},
		{"trip_invalid_date.xml", domain.ConnectionsStatusInvalidDate},
		{"trip_unknown_to.xml", domain.ConnectionsStatusUnknownTo},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.fixture, func(t *testing.T) {
			client, _ := newTestClient(t, map[string]string{
				DefaultTripEndpoint: tt.fixture,
			}, nil)

			result, err := client.QueryConnections(context.Background(), tripQuery())
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
			assert.Empty(t, result.Connections)
			assert.Nil(t, result.Context)
		})
	}
}

func TestClient_QueryConnections_Ambiguous(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		DefaultTripEndpoint: "trip_ambiguous.xml",
	}, nil)

	result, err := client.QueryConnections(context.Background(), tripQuery())
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionsStatusAmbiguous, result.Status)

	require.Len(t, result.AmbiguousFrom, 3)
	assert.Equal(t, 20018235, result.AmbiguousFrom[0].ID)
	assert.Equal(t, domain.LocationTypeAddress, result.AmbiguousFrom[2].Type)
	assert.Equal(t, "Bahnstraße", result.AmbiguousFrom[2].Name)
	assert.Nil(t, result.AmbiguousVia)
	assert.Nil(t, result.AmbiguousTo)
}

func TestClient_QueryMoreConnections(t *testing.T) {
	t.Run("token is single use", func(t *testing.T) {
		client, fake := newTestClient(t, map[string]string{
			DefaultTripEndpoint: "trip.xml",
		}, func(cfg *ProviderConfig) { cfg.HTTPPost = true })

		first, err := client.QueryConnections(context.Background(), tripQuery())
		require.NoError(t, err)
		require.NotNil(t, first.Context)

		more, err := client.QueryMoreConnections(context.Background(), first.Context, true)
		require.NoError(t, err)
		assert.Equal(t, domain.ConnectionsStatusOK, more.Status)
		require.NotNil(t, more.Context)
		assert.NotSame(t, first.Context, more.Context)

		req := fake.lastRequest()
		assert.Equal(t, http.MethodGet, req.method)
		assert.Contains(t, req.rawQuery, "sessionID=VRR_TRIP_42")
		assert.True(t, strings.HasSuffix(req.rawQuery, "command=tripNext"))

		_, err = client.QueryMoreConnections(context.Background(), first.Context, true)
		assert.True(t, apperrors.IsSessionExpired(err))

		_, err = client.QueryMoreConnections(context.Background(), more.Context, false)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(fake.lastRequest().rawQuery, "command=tripPrev"))
	})

	t.Run("concurrent reuse", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{
			DefaultTripEndpoint: "trip.xml",
		}, nil)
		first, err := client.QueryConnections(context.Background(), tripQuery())
		require.NoError(t, err)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			ok      int
			expired int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := client.QueryMoreConnections(context.Background(), first.Context, true)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case apperrors.IsSessionExpired(err):
					expired++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, ok)
		assert.Equal(t, 7, expired)
	})

	t.Run("server rejects session", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{
			DefaultTripEndpoint:                       "trip.xml",
			DefaultTripEndpoint + "?command=tripNext": "session_expired.html",
			DefaultTripEndpoint + "?command=tripPrev": "error_page.html",
		}, nil)

		first, err := client.QueryConnections(context.Background(), tripQuery())
		require.NoError(t, err)
		_, err = client.QueryMoreConnections(context.Background(), first.Context, true)
		var expired *apperrors.SessionExpiredError
		require.True(t, errors.As(err, &expired))
		assert.Contains(t, expired.URI, "command=tripNext")

		second, err := client.QueryConnections(context.Background(), tripQuery())
		require.NoError(t, err)
		_, err = client.QueryMoreConnections(context.Background(), second.Context, false)
		var protoErr *apperrors.ProtocolError
		assert.True(t, errors.As(err, &protoErr))
	})

	t.Run("restored token", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{
			DefaultTripEndpoint: "trip.xml",
		}, nil)
		first, err := client.QueryConnections(context.Background(), tripQuery())
		require.NoError(t, err)

		restored, err := domain.ParseContext(first.Context.Token())
		require.NoError(t, err)
		assert.Equal(t, first.Context.CommandURI(), restored.CommandURI())

		_, err = client.QueryMoreConnections(context.Background(), restored, true)
		require.NoError(t, err)
	})

	t.Run("missing context", func(t *testing.T) {
		client, _ := newTestClient(t, nil, nil)

		_, err := client.QueryMoreConnections(context.Background(), nil, true)
		var illegal *apperrors.IllegalArgumentError
		assert.True(t, errors.As(err, &illegal))

		_, err = client.QueryMoreConnections(context.Background(), domain.NewContext(""), true)
		assert.True(t, errors.As(err, &illegal))
	})
}

func TestAppendFootway(t *testing.T) {
	a := domain.NewStation(1, "", "A", 0, 0)
	b := domain.NewStation(2, "", "B", 0, 0)
	c := domain.NewStation(3, "", "C", 0, 0)

	parts := appendFootway(nil, &domain.Footway{Min: 2, Distance: 100, From: a, To: b})
	parts = appendFootway(parts, &domain.Footway{Min: 3, Distance: 50, Transfer: true, From: b, To: c, Path: []domain.Point{{Lat: 1, Lon: 1}}})

	require.Len(t, parts, 1)
	merged := parts[0].(*domain.Footway)
	assert.Equal(t, 5, merged.Min)
	assert.Equal(t, 150, merged.Distance)
	assert.True(t, merged.Transfer)
	assert.Equal(t, a, merged.From)
	assert.Equal(t, c, merged.To)
	assert.Equal(t, []domain.Point{{Lat: 1, Lon: 1}}, merged.Path)

	parts = append(parts, &domain.Trip{})
	parts = appendFootway(parts, &domain.Footway{Min: 1, From: c, To: a})
	assert.Len(t, parts, 3)
}
