package efa

import (
	"errors"
	"testing"

	"github.com/efa-transit/internal/domain"
	apperrors "github.com/efa-transit/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONStopFinder(t *testing.T) {
	t.Run("points list", func(t *testing.T) {
		locations, err := parseJSONStopFinder("uri", readFixture(t, "stopfinder.json"))
		require.NoError(t, err)
		require.Len(t, locations, 4)

		assert.Equal(t, domain.NewStation(20018235, "Düsseldorf", "Hauptbahnhof", 51219893, 6794149), locations[0])
		assert.Equal(t, 20018240, locations[1].ID)
		assert.Equal(t, domain.Location{
			Type:  domain.LocationTypeAddress,
			Lat:   51219800,
			Lon:   6793900,
			Place: "Düsseldorf",
			Name:  "Düsseldorf, Konrad-Adenauer-Platz 1",
		}, locations[2])
		assert.Equal(t, domain.LocationTypePOI, locations[3].Type)
		assert.Equal(t, "Kom(m)ödchen", locations[3].Name)
	})

	t.Run("single point", func(t *testing.T) {
		locations, err := parseJSONStopFinder("uri", readFixture(t, "stopfinder_single.json"))
		require.NoError(t, err)
		assert.Equal(t, []domain.Location{
			domain.NewStation(20021123, "Ratingen", "Mitte", 51297420, 6850110),
		}, locations)
	})

	t.Run("no points", func(t *testing.T) {
		locations, err := parseJSONStopFinder("uri", readFixture(t, "stopfinder_empty.json"))
		require.NoError(t, err)
		assert.NotNil(t, locations)
		assert.Empty(t, locations)
	})

	t.Run("top level list", func(t *testing.T) {
		locations, err := parseJSONStopFinder("uri", []byte(`{"stopFinder":[{"type":"poi","object":"Zoo","ref":{"id":"7","place":"Wuppertal","coords":"7100000,51250000"}}]}`))
		require.NoError(t, err)
		require.Len(t, locations, 1)
		assert.Equal(t, domain.Location{Type: domain.LocationTypePOI, Lat: 51250000, Lon: 7100000, Place: "Wuppertal", Name: "Zoo"}, locations[0])
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := parseJSONStopFinder("uri", []byte(`{"stopFinder":{"points":[{"type":"airport","name":"DUS"}]}}`))
		var parseErr *apperrors.ParserError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "stopFinder", parseErr.Tag)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := parseJSONStopFinder("uri", []byte(`{"stopFinder":`))
		assert.Error(t, err)
	})
}
