package efa

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/efa-transit/internal/domain"
	apperrors "github.com/efa-transit/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, mutate func(*ProviderConfig)) *Client {
	t.Helper()
	cfg, err := Lookup(ProviderVRR)
	require.NoError(t, err)
	cfg = cfg.WithBaseURL("http://efa.example/standard")
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := NewClient(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestStopFinderRequest(t *testing.T) {
	t.Run("provider charset", func(t *testing.T) {
		client := testClient(t, nil)
		uri := client.stopFinderRequest("Düsseldorf Hbf", "JSON").uri(false)

		assert.True(t, strings.HasPrefix(uri, "http://efa.example/standard/XML_STOPFINDER_REQUEST?outputFormat=JSON&coordOutputFormat=WGS84&"))
		assert.Contains(t, uri, "name_sf=D%FCsseldorf+Hbf")
		assert.Contains(t, uri, "regionID_sf=1")
		assert.Contains(t, uri, "anyMaxSizeHitList=500")
	})

	t.Run("utf-8 provider", func(t *testing.T) {
		client := testClient(t, func(cfg *ProviderConfig) { cfg.RequestURLEncoding = "UTF-8" })
		uri := client.stopFinderRequest("Düsseldorf", "JSON").uri(false)
		assert.Contains(t, uri, "name_sf=D%C3%BCsseldorf")
	})

	t.Run("xml with SpEncId", func(t *testing.T) {
		client := testClient(t, nil)
		req := client.stopFinderRequest("Essen", "XML")

		v, ok := req.params.get("SpEncId")
		assert.True(t, ok)
		assert.Equal(t, "0", v)
		_, ok = req.params.get("anyMaxSizeHitList")
		assert.False(t, ok)
	})

	t.Run("additional parameter", func(t *testing.T) {
		client := testClient(t, func(cfg *ProviderConfig) { cfg.AdditionalQueryParameter = "lsShowTrainsExplicit=1" })
		req := client.stopFinderRequest("Essen", "JSON")
		v, ok := req.params.get("lsShowTrainsExplicit")
		assert.True(t, ok)
		assert.Equal(t, "1", v)
	})
}

func TestCoordRequest(t *testing.T) {
	client := testClient(t, nil)
	req := client.coordRequest(51220250, 6793177, 0, 0)

	coord, _ := req.params.get("coord")
	assert.Equal(t, "6.793177:51.220250:WGS84", coord)
	maxStations, _ := req.params.get("max")
	assert.Equal(t, "50", maxStations)
	radius, _ := req.params.get("radius_1")
	assert.Equal(t, "1320", radius)
}

func TestDepartureMonitorRequest(t *testing.T) {
	client := testClient(t, nil)

	req := client.departureMonitorRequest(20018235, 0, false)
	v, _ := req.params.get("deleteAssignedStops_dm")
	assert.Equal(t, "1", v)
	_, ok := req.params.get("limit")
	assert.False(t, ok)

	req = client.departureMonitorRequest(20018235, 15, true)
	v, _ = req.params.get("deleteAssignedStops_dm")
	assert.Equal(t, "0", v)
	v, _ = req.params.get("limit")
	assert.Equal(t, "15", v)
}

func TestTripRequest(t *testing.T) {
	loc := berlin(t)
	base := domain.ConnectionsQuery{
		From:      domain.NewStation(20018235, "Düsseldorf", "Hauptbahnhof", 0, 0),
		To:        domain.NewStation(20021123, "Ratingen", "Mitte", 0, 0),
		Time:      time.Date(2012, 3, 14, 9, 5, 0, 0, time.UTC),
		Departing: true,
	}

	t.Run("basic parameters", func(t *testing.T) {
		client := testClient(t, nil)
		req, err := client.tripRequest(base)
		require.NoError(t, err)

		expect := map[string]string{
			"type_origin":           "stop",
			"name_origin":           "20018235",
			"type_destination":      "stop",
			"name_destination":      "20021123",
			"itdDate":               "20120314",
			"itdTime":               time.Date(2012, 3, 14, 9, 5, 0, 0, time.UTC).In(loc).Format("1504"),
			"itdTripDateTimeDepArr": "dep",
			"calcNumberOfTrips":     "4",
			"changeSpeed":           "normal",
			"language":              "de",
		}
		for key, want := range expect {
			got, ok := req.params.get(key)
			assert.True(t, ok, key)
			assert.Equal(t, want, got, key)
		}
		_, ok := req.params.get("includedMeans")
		assert.False(t, ok)
	})

	t.Run("products with line restriction", func(t *testing.T) {
		client := testClient(t, nil)
		q := base
		q.Products = []domain.Product{domain.ProductRegionalTrain, domain.ProductBus, domain.ProductRegionalTrain}
		req, err := client.tripRequest(q)
		require.NoError(t, err)

		uri := req.uri(false)
		assert.Equal(t, 1, strings.Count(uri, "inclMOT_0=on"))
		for _, mot := range []string{"inclMOT_5=on", "inclMOT_6=on", "inclMOT_7=on", "inclMOT_11=on", "lineRestriction=403"} {
			assert.Contains(t, uri, mot)
		}
		assert.NotContains(t, uri, "inclMOT_1=")
	})

	t.Run("high speed disables line restriction", func(t *testing.T) {
		client := testClient(t, nil)
		q := base
		q.Products = []domain.Product{domain.ProductHighSpeedTrain}
		req, err := client.tripRequest(q)
		require.NoError(t, err)
		_, ok := req.params.get("lineRestriction")
		assert.False(t, ok)
	})

	t.Run("accessibility and bike", func(t *testing.T) {
		client := testClient(t, nil)
		q := base
		q.Accessibility = domain.AccessibilityLimited
		q.Options = []domain.TripOption{domain.TripOptionBike}
		q.WalkSpeed = domain.WalkSpeedFast
		req, err := client.tripRequest(q)
		require.NoError(t, err)

		v, _ := req.params.get("lowPlatformVhcl")
		assert.Equal(t, "on", v)
		v, _ = req.params.get("bikeTakeAlong")
		assert.Equal(t, "1", v)
		v, _ = req.params.get("changeSpeed")
		assert.Equal(t, "fast", v)
	})

	t.Run("location without data", func(t *testing.T) {
		client := testClient(t, nil)
		q := base
		q.To = domain.Location{Type: domain.LocationTypeStation}
		_, err := client.tripRequest(q)

		var illegal *apperrors.IllegalArgumentError
		assert.True(t, errors.As(err, &illegal))
	})
}

func TestAppendLocation(t *testing.T) {
	tests := []struct {
		name      string
		loc       domain.Location
		poiID     bool
		wantType  string
		wantValue string
	}{
		{
			name:      "address by coordinate",
			loc:       domain.Location{Type: domain.LocationTypeAddress, Lat: 51220250, Lon: 6793177, Name: "Bahnstraße 1"},
			wantType:  "coord",
			wantValue: "6.793177:51.220250:WGS84",
		},
		{
			name:      "poi by id",
			loc:       domain.Location{Type: domain.LocationTypePOI, ID: 1001, Lat: 51227000, Lon: 6775000},
			poiID:     true,
			wantType:  "poiID",
			wantValue: "1001",
		},
		{
			name:      "free text",
			loc:       domain.NewAnyLocation("Essen Hbf"),
			wantType:  "any",
			wantValue: "Essen+Hbf",
		},
		{
			name:      "address by name",
			loc:       domain.Location{Type: domain.LocationTypeAddress, Name: "Königsallee"},
			wantType:  "any",
			wantValue: "K%F6nigsallee",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(cfg *ProviderConfig) { cfg.CanAcceptPoiID = tt.poiID })
			p := client.newParams("XML")
			require.NoError(t, client.appendLocation(p, tt.loc, "origin"))

			typ, _ := p.get("type_origin")
			value, _ := p.get("name_origin")
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestCommandRequest(t *testing.T) {
	client := testClient(t, func(cfg *ProviderConfig) { cfg.HTTPPost = true })
	link := client.commandLink("VRR_TRIP_42", "1")
	assert.Equal(t, "http://efa.example/standard/XSLT_TRIP_REQUEST2?sessionID=VRR_TRIP_42&requestID=1&coordListOutputFormat=STRING&calcNumberOfTrips=4", link)

	next := client.commandRequest(link, true)
	assert.True(t, next.forceGet)
	assert.Equal(t, link+"&command=tripNext", next.uri(true))

	prev := client.commandRequest(link, false)
	assert.True(t, strings.HasSuffix(prev.uri(true), "&command=tripPrev"))
}
