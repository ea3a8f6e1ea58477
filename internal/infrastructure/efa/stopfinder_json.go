package efa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/efa-transit/internal/domain"
	apperrors "github.com/efa-transit/internal/pkg/errors"
)

// flexInt принимает число как в виде числа, так и в виде строки
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %s", data)
	}
	*n = flexInt(v)
	return nil
}

// flexString принимает строку или число
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}
	*s = flexString(data)
	return nil
}

type jsonStopRef struct {
	ID     flexInt `json:"id"`
	Place  string  `json:"place"`
	Coords string  `json:"coords"`
}

type jsonStop struct {
	Type      string      `json:"type"`
	AnyType   string      `json:"anyType"`
	Object    string      `json:"object"`
	Name      string      `json:"name"`
	Stateless flexString  `json:"stateless"`
	Ref       jsonStopRef `json:"ref"`
}

type jsonStopFinderResponse struct {
	StopFinder json.RawMessage `json:"stopFinder"`
}

type jsonStopFinder struct {
	Points json.RawMessage `json:"points"`
}

type jsonSinglePoint struct {
	Point jsonStop `json:"point"`
}

// parseJSONStopFinder разбирает ответ стопфайндера в формате JSON.
// stopFinder бывает массивом, объектом со списком points или объектом с одним point.
func parseJSONStopFinder(uri string, payload []byte) ([]domain.Location, error) {
	fail := func(format string, args ...interface{}) error {
		return (&apperrors.ParserError{
			URI:     uri,
			Tag:     "stopFinder",
			Message: fmt.Sprintf(format, args...),
		}).WithPayload(payload)
	}

	var head jsonStopFinderResponse
	if err := json.Unmarshal(payload, &head); err != nil {
		return nil, fail("malformed json: %v", err)
	}

	raw := bytes.TrimSpace(head.StopFinder)
	var stops []jsonStop
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil, fail("missing stopFinder")
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &stops); err != nil {
			return nil, fail("malformed stopFinder list: %v", err)
		}
	default:
		var sf jsonStopFinder
		if err := json.Unmarshal(raw, &sf); err != nil {
			return nil, fail("malformed stopFinder: %v", err)
		}
		points := bytes.TrimSpace(sf.Points)
		switch {
		case len(points) == 0 || bytes.Equal(points, []byte("null")):
			return []domain.Location{}, nil
		case points[0] == '{':
			var single jsonSinglePoint
			if err := json.Unmarshal(points, &single); err != nil {
				return nil, fail("malformed point: %v", err)
			}
			stops = []jsonStop{single.Point}
		default:
			if err := json.Unmarshal(points, &stops); err != nil {
				return nil, fail("malformed points: %v", err)
			}
		}
	}

	locations := make([]domain.Location, 0, len(stops))
	for _, stop := range stops {
		loc, err := stop.location()
		if err != nil {
			return nil, fail("%v", err)
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

func (s jsonStop) location() (domain.Location, error) {
	typ := s.Type
	if typ == "any" {
		typ = s.AnyType
	}
	name := normalizeLocationName(s.Object)
	place := s.Ref.Place

	var lat, lon int
	if s.Ref.Coords != "" {
		xs, ys, found := strings.Cut(s.Ref.Coords, ",")
		if !found {
			return domain.Location{}, fmt.Errorf("malformed coords %q", s.Ref.Coords)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return domain.Location{}, fmt.Errorf("malformed coords %q", s.Ref.Coords)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return domain.Location{}, fmt.Errorf("malformed coords %q", s.Ref.Coords)
		}
		lat, lon = roundCoord(y), roundCoord(x)
	}

	switch typ {
	case "stop":
		id, err := strconv.Atoi(string(s.Stateless))
		if err != nil {
			return domain.Location{}, fmt.Errorf("malformed stop id %q", s.Stateless)
		}
		return domain.NewStation(id, place, name, lat, lon), nil
	case "poi":
		return domain.Location{Type: domain.LocationTypePOI, Lat: lat, Lon: lon, Place: place, Name: name}, nil
	case "crossing":
		return domain.Location{Type: domain.LocationTypeAddress, Lat: lat, Lon: lon, Place: place, Name: name}, nil
	case "street", "address", "singlehouse":
		return domain.Location{
			Type:  domain.LocationTypeAddress,
			Lat:   lat,
			Lon:   lon,
			Place: place,
			Name:  normalizeLocationName(s.Name),
		}, nil
	}
	return domain.Location{}, fmt.Errorf("unknown stop type %q", typ)
}
