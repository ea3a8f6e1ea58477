package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efa-transit/internal/domain"
	apperrors "github.com/efa-transit/internal/pkg/errors"
)

// fakeFlags - значения флагов без разбора командной строки
type fakeFlags map[string]any

func (f fakeFlags) Int(name string) int {
	v, _ := f[name].(int)
	return v
}

func (f fakeFlags) Float64(name string) float64 {
	v, _ := f[name].(float64)
	return v
}

func (f fakeFlags) String(name string) string {
	v, _ := f[name].(string)
	return v
}

func (f fakeFlags) IsSet(name string) bool {
	_, ok := f[name]
	return ok
}

func TestLocationFromFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags fakeFlags
		want  domain.Location
		ok    bool
	}{
		{
			name:  "station by id",
			flags: fakeFlags{"from-id": 20018235},
			want:  domain.Location{Type: domain.LocationTypeStation, ID: 20018235},
			ok:    true,
		},
		{
			name:  "coordinate",
			flags: fakeFlags{"from-lat": 51.219893, "from-lon": 6.794149},
			want:  domain.Location{Type: domain.LocationTypeCoordinate, Lat: 51219893, Lon: 6794149},
			ok:    true,
		},
		{
			name:  "free text",
			flags: fakeFlags{"from-place": "Düsseldorf", "from-name": "Hbf"},
			want:  domain.Location{Type: domain.LocationTypeAny, Place: "Düsseldorf", Name: "Hbf"},
			ok:    true,
		},
		{
			name:  "explicit type",
			flags: fakeFlags{"from-type": "address", "from-name": "Königsallee 1"},
			want:  domain.Location{Type: domain.LocationTypeAddress, Name: "Königsallee 1"},
			ok:    true,
		},
		{
			name:  "empty",
			flags: fakeFlags{},
			ok:    false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := locationFromFlags(tt.flags, "from")
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNearbyLocation(t *testing.T) {
	l, err := nearbyLocation(20018235, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.LocationTypeStation, l.Type)

	l, err = nearbyLocation(0, 51.2, 6.8)
	require.NoError(t, err)
	assert.Equal(t, domain.NewCoordinate(51200000, 6800000), l)

	_, err = nearbyLocation(0, 0, 0)
	assert.Error(t, err)

	_, err = nearbyLocation(0, 95, 6.8)
	assert.Error(t, err)
}

func TestBuildTripQuery(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	now := time.Date(2012, 3, 14, 8, 0, 0, 0, berlin)

	base := fakeFlags{
		"from-id":    20018235,
		"to-name":    "Ratingen Mitte",
		"walk-speed": "slow",
		"num":        4,
	}

	t.Run("defaults", func(t *testing.T) {
		q, err := buildTripQuery(base, nil, false, false, now)
		require.NoError(t, err)
		assert.True(t, q.Departing)
		assert.Equal(t, now, q.Time)
		assert.Equal(t, domain.WalkSpeedSlow, q.WalkSpeed)
		assert.Nil(t, q.Via)
		assert.Nil(t, q.Products)
		assert.Equal(t, 4, q.NumConnections)
		assert.Equal(t, domain.LocationTypeAny, q.To.Type)
	})

	t.Run("time products and bike", func(t *testing.T) {
		flags := fakeFlags{"time": "2012-03-14 09:05", "via-id": 20018031}
		for k, v := range base {
			flags[k] = v
		}

		q, err := buildTripQuery(flags, []string{"s", "U"}, true, true, now)
		require.NoError(t, err)
		assert.False(t, q.Departing)
		assert.Equal(t, time.Date(2012, 3, 14, 9, 5, 0, 0, berlin), q.Time)
		assert.Equal(t, []domain.Product{domain.ProductSuburbanTrain, domain.ProductSubway}, q.Products)
		assert.True(t, q.HasOption(domain.TripOptionBike))
		require.NotNil(t, q.Via)
		assert.Equal(t, 20018031, q.Via.ID)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := buildTripQuery(fakeFlags{"to-name": "x"}, nil, false, false, now)
		assert.Error(t, err)

		_, err = buildTripQuery(base, []string{"X"}, false, false, now)
		assert.Error(t, err)

		flags := fakeFlags{"time": "14.03.2012"}
		for k, v := range base {
			flags[k] = v
		}
		_, err = buildTripQuery(flags, nil, false, false, now)
		assert.Error(t, err)
	})
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries io errors", func(t *testing.T) {
		calls := 0
		result, err := withRetry(ctx, 3, zap.NewNop(), func() (any, error) {
			calls++
			if calls < 2 {
				return nil, &apperrors.IOError{URI: "http://efa", Err: errors.New("connection reset")}
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 2, calls)
	})

	t.Run("does not retry invalid data", func(t *testing.T) {
		calls := 0
		_, err := withRetry(ctx, 3, zap.NewNop(), func() (any, error) {
			calls++
			return nil, apperrors.NewInvalidDataError("year", "1800")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
