package efa

import (
	"context"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/infrastructure/efa/xmlpull"
	apperrors "github.com/efa-transit/internal/pkg/errors"
	"go.uber.org/zap"
)

// parseFailed логирует ошибку разбора ответа
func (c *Client) parseFailed(uri string, err error) error {
	c.logger.Error("Failed to parse EFA response", zap.String("uri", uri), zap.Error(err))
	return err
}

// AutocompleteStations ищет локации по свободному тексту. Порядок кандидатов задает сервер.
func (c *Client) AutocompleteStations(ctx context.Context, text string) (*domain.SuggestLocationsResult, error) {
	if c.cfg.XMLStopFinder {
		return c.xmlStopFinder(ctx, text)
	}

	payload, uri, err := c.fetch(ctx, c.stopFinderRequest(text, "JSON"))
	if err != nil {
		return nil, err
	}
	if looksLikeHTML(payload) {
		return nil, c.protocolError(uri, payload)
	}

	locations, err := parseJSONStopFinder(uri, payload)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}

	return &domain.SuggestLocationsResult{
		Header:    &domain.ResultHeader{ServerProduct: serverProduct},
		Status:    domain.NearbyStatusOK,
		Locations: locations,
	}, nil
}

func (c *Client) xmlStopFinder(ctx context.Context, text string) (*domain.SuggestLocationsResult, error) {
	payload, uri, err := c.fetch(ctx, c.stopFinderRequest(text, "XML"))
	if err != nil {
		return nil, err
	}
	p, err := c.newParser(uri, payload)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}

	result, err := c.parseXMLStopFinder(p)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}
	return result, nil
}

func (c *Client) parseXMLStopFinder(p *xmlpull.Parser) (*domain.SuggestLocationsResult, error) {
	header, err := c.enterItdRequest(p)
	if err != nil {
		return nil, err
	}
	if err := p.Enter("itdStopFinderRequest"); err != nil {
		return nil, err
	}

	if p.Test("itdOdv") && p.OptAttr("usage") != "sf" {
		return nil, p.Errorf("expected <itdOdv usage=\"sf\">")
	}
	odv, err := enterOdv(p)
	if err != nil {
		return nil, err
	}

	locations := []domain.Location{}
	switch odv.state {
	case "identified", "list":
		if locations, err = parseOdvNameElems(p, ""); err != nil {
			return nil, err
		}
	case "notidentified":
	default:
		return nil, p.Errorf("unknown name state %q", odv.state)
	}

	for _, name := range []string{"itdOdvName", "itdOdv", "itdStopFinderRequest"} {
		if err := p.Exit(name); err != nil {
			return nil, err
		}
	}

	if locations == nil {
		locations = []domain.Location{}
	}
	return &domain.SuggestLocationsResult{Header: header, Status: domain.NearbyStatusOK, Locations: locations}, nil
}

// QueryNearbyStations ищет станции рядом с координатой или станции, назначенные остановке.
// maxStations == 0 - без ограничения.
func (c *Client) QueryNearbyStations(ctx context.Context, location domain.Location, maxDistance, maxStations int) (*domain.NearbyStationsResult, error) {
	if location.HasLocation() {
		return c.coordNearby(ctx, location.Lat, location.Lon, maxDistance, maxStations)
	}
	if location.Type != domain.LocationTypeStation {
		return nil, apperrors.NewIllegalArgument("cannot find nearby stations for location type %s", location.Type)
	}
	if !location.HasID() {
		return nil, apperrors.NewIllegalArgument("at least one of station id or coordinate must be given")
	}
	return c.assignedStopsNearby(ctx, location.ID, maxStations)
}

func (c *Client) coordNearby(ctx context.Context, lat, lon, maxDistance, maxStations int) (*domain.NearbyStationsResult, error) {
	payload, uri, err := c.fetch(ctx, c.coordRequest(lat, lon, maxDistance, maxStations))
	if err != nil {
		return nil, err
	}
	p, err := c.newParser(uri, payload)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}

	result, err := c.parseCoordInfo(p)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}
	return result, nil
}

func (c *Client) parseCoordInfo(p *xmlpull.Parser) (*domain.NearbyStationsResult, error) {
	header, err := c.enterItdRequest(p)
	if err != nil {
		return nil, err
	}
	if err := p.Enter("itdCoordInfoRequest"); err != nil {
		return nil, err
	}
	if err := p.Enter("itdCoordInfo"); err != nil {
		return nil, err
	}
	if err := p.Enter("coordInfoRequest"); err != nil {
		return nil, err
	}
	if err := p.Exit("coordInfoRequest"); err != nil {
		return nil, err
	}

	stations := []domain.Location{}
	if p.Test("coordInfoItemList") {
		if err := p.Enter("coordInfoItemList"); err != nil {
			return nil, err
		}
		for p.Test("coordInfoItem") {
			if typ := p.OptAttr("type"); typ != "STOP" {
				return nil, p.Errorf("unknown coordInfoItem type %q", typ)
			}
			id, err := p.IntAttr("id")
			if err != nil {
				return nil, err
			}
			name, err := p.Attr("name")
			if err != nil {
				return nil, err
			}
			place := normalizeLocationName(p.OptAttr("locality"))

			if err := p.Enter("coordInfoItem"); err != nil {
				return nil, err
			}
			path, err := parseItdPathCoordinates(p)
			if err != nil {
				return nil, err
			}
			if len(path) == 0 {
				return nil, p.Errorf("coordInfoItem %d without coordinate", id)
			}
			if err := p.Exit("coordInfoItem"); err != nil {
				return nil, err
			}

			stations = append(stations, domain.NewStation(id, place, normalizeLocationName(name), path[0].Lat, path[0].Lon))
		}
		if err := p.Exit("coordInfoItemList"); err != nil {
			return nil, err
		}
	}

	return &domain.NearbyStationsResult{Header: header, Status: domain.NearbyStatusOK, Stations: stations}, nil
}

func (c *Client) assignedStopsNearby(ctx context.Context, stationID, maxStations int) (*domain.NearbyStationsResult, error) {
	payload, uri, err := c.fetch(ctx, c.nearbyStationsRequest(stationID))
	if err != nil {
		return nil, err
	}
	p, err := c.newParser(uri, payload)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}

	result, err := c.parseAssignedStops(p, maxStations)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}
	return result, nil
}

func (c *Client) parseAssignedStops(p *xmlpull.Parser, maxStations int) (*domain.NearbyStationsResult, error) {
	header, err := c.enterItdRequest(p)
	if err != nil {
		return nil, err
	}
	if p.Test("itdDepartureMonitorRequest") {
		if err := p.Enter("itdDepartureMonitorRequest"); err != nil {
			return nil, err
		}
	}

	found, err := p.SkipTo("itdOdv")
	if err != nil {
		return nil, err
	}
	if !found || p.OptAttr("usage") != "dm" {
		return nil, p.Errorf("cannot find <itdOdv usage=\"dm\">")
	}
	odv, err := enterOdv(p)
	if err != nil {
		return nil, err
	}

	stations := []domain.Location{}
	switch odv.state {
	case "identified":
		own, err := parseOdvNameElem(p, odv.place)
		if err != nil {
			return nil, err
		}
		if err := p.Exit("itdOdvName"); err != nil {
			return nil, err
		}

		found, err := p.SkipTo("itdOdvAssignedStops")
		if err != nil {
			return nil, err
		}
		if found {
			if err := p.Enter("itdOdvAssignedStops"); err != nil {
				return nil, err
			}
			for p.Test("itdOdvAssignedStop") {
				// остановки без координаты пропускаются
				if p.OptAttr("mapName") == "" {
					if err := p.Next(); err != nil {
						return nil, err
					}
					continue
				}
				station, err := parseItdOdvAssignedStop(p)
				if err != nil {
					return nil, err
				}
				if !containsLocation(stations, station) {
					stations = append(stations, station)
				}
			}
			if err := p.Exit("itdOdvAssignedStops"); err != nil {
				return nil, err
			}
		}

		if own.Type == domain.LocationTypeStation && !containsLocation(stations, own) {
			stations = append(stations, own)
		}
		if maxStations > 0 && maxStations < len(stations) {
			stations = stations[:maxStations]
		}

	case "list":
		candidates, err := parseOdvNameElems(p, odv.place)
		if err != nil {
			return nil, err
		}
		for _, loc := range candidates {
			if loc.Type == domain.LocationTypeStation && !containsLocation(stations, loc) {
				stations = append(stations, loc)
			}
		}

	case "notidentified":
		return &domain.NearbyStationsResult{Header: header, Status: domain.NearbyStatusInvalidStation}, nil

	default:
		return nil, p.Errorf("unknown name state %q", odv.state)
	}

	return &domain.NearbyStationsResult{Header: header, Status: domain.NearbyStatusOK, Stations: stations}, nil
}
