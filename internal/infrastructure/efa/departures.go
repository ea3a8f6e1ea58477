package efa

import (
	"context"
	"time"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/infrastructure/efa/xmlpull"
	"go.uber.org/zap"
)

// cancelledDelay - значение задержки, которым сервер помечает отмененный рейс
const cancelledDelay = -9999

// QueryDepartures запрашивает табло отправлений станции.
// equivs - включать отправления с назначенных остановок.
func (c *Client) QueryDepartures(ctx context.Context, stationID, maxDepartures int, equivs bool) (*domain.QueryDeparturesResult, error) {
	payload, uri, err := c.fetch(ctx, c.departureMonitorRequest(stationID, maxDepartures, equivs))
	if err != nil {
		return nil, err
	}
	p, err := c.newParser(uri, payload)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}

	result, err := c.parseDepartureMonitor(p)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}
	return result, nil
}

// departureBoard накапливает группы табло в порядке появления
type departureBoard struct {
	groups []domain.StationDepartures
	// delays - задержки линий из каталога, по id линии
	delays map[string]int
}

func (b *departureBoard) find(stationID int) int {
	for i := range b.groups {
		if b.groups[i].Location.ID == stationID {
			return i
		}
	}
	return -1
}

func (b *departureBoard) add(loc domain.Location) int {
	b.groups = append(b.groups, domain.StationDepartures{
		Location:   loc,
		Departures: []domain.Departure{},
	})
	return len(b.groups) - 1
}

func (c *Client) parseDepartureMonitor(p *xmlpull.Parser) (*domain.QueryDeparturesResult, error) {
	header, err := c.enterItdRequest(p)
	if err != nil {
		return nil, err
	}
	if err := p.Enter("itdDepartureMonitorRequest"); err != nil {
		return nil, err
	}

	if !p.Test("itdOdv") || p.OptAttr("usage") != "dm" {
		return nil, p.Errorf("cannot find <itdOdv usage=\"dm\">")
	}
	odv, err := enterOdv(p)
	if err != nil {
		return nil, err
	}

	switch odv.state {
	case "identified":
	case "notidentified", "list":
		return &domain.QueryDeparturesResult{Header: header, Status: domain.DeparturesStatusInvalidStation}, nil
	default:
		return nil, p.Errorf("unknown name state %q", odv.state)
	}

	board := &departureBoard{delays: make(map[string]int)}

	own, err := parseOdvNameElem(p, odv.place)
	if err != nil {
		return nil, err
	}
	board.add(own)
	if err := p.Exit("itdOdvName"); err != nil {
		return nil, err
	}

	if p.Test("itdOdvAssignedStops") {
		if err := p.Enter("itdOdvAssignedStops"); err != nil {
			return nil, err
		}
		for p.Test("itdOdvAssignedStop") {
			assigned, err := parseItdOdvAssignedStop(p)
			if err != nil {
				return nil, err
			}
			if board.find(assigned.ID) < 0 {
				board.add(assigned)
			}
		}
		if err := p.Exit("itdOdvAssignedStops"); err != nil {
			return nil, err
		}
	}
	if err := p.Exit("itdOdv"); err != nil {
		return nil, err
	}

	for _, name := range []string{"itdDateTime", "itdDMDateTime", "itdDateRange", "itdTripOptions"} {
		if err := p.OptSkip(name); err != nil {
			return nil, err
		}
	}
	if err := p.OptSkipAll("itdMessage"); err != nil {
		return nil, err
	}

	if err := c.parseServingLines(p, board); err != nil {
		return nil, err
	}
	if err := c.parseDepartureList(p, board); err != nil {
		return nil, err
	}

	return &domain.QueryDeparturesResult{
		Header:            header,
		Status:            domain.DeparturesStatusOK,
		StationDepartures: board.groups,
	}, nil
}

// parseServingLines читает каталог линий: линия, направление и назначенная остановка
func (c *Client) parseServingLines(p *xmlpull.Parser, board *departureBoard) error {
	if err := p.Enter("itdServingLines"); err != nil {
		return err
	}

	for p.Test("itdServingLine") {
		assignedStopID, err := p.OptIntAttr("assignedStopID", 0)
		if err != nil {
			return err
		}
		dest, err := destination(p.OptAttr("direction"), p.OptAttr("destID"))
		if err != nil {
			return p.Errorf("malformed destID %q", p.OptAttr("destID"))
		}
		sl, err := parseItdServingLine(p)
		if err != nil {
			return err
		}
		if sl.hasDelay && sl.line.ID != "" {
			board.delays[sl.line.ID] = sl.delay
		}

		idx := 0
		if assignedStopID != 0 {
			if idx = board.find(assignedStopID); idx < 0 {
				idx = board.add(domain.NewStation(assignedStopID, "", "", 0, 0))
			}
		}

		group := &board.groups[idx]
		entry := domain.LineDestination{Line: sl.line, Destination: dest}
		if !containsLineDestination(group.Lines, entry) {
			group.Lines = append(group.Lines, entry)
		}
	}

	return p.Exit("itdServingLines")
}

func containsLineDestination(list []domain.LineDestination, ld domain.LineDestination) bool {
	for _, l := range list {
		if !l.Line.Equal(ld.Line) {
			continue
		}
		switch {
		case l.Destination == nil && ld.Destination == nil:
			return true
		case l.Destination != nil && ld.Destination != nil && l.Destination.Equal(*ld.Destination):
			return true
		}
	}
	return false
}

// parseDepartureList читает отправления и раскладывает их по группам табло
func (c *Client) parseDepartureList(p *xmlpull.Parser, board *departureBoard) error {
	if err := p.Enter("itdDepartureList"); err != nil {
		return err
	}

	for p.Test("itdDeparture") {
		stopID, err := p.IntAttr("stopID")
		if err != nil {
			return err
		}

		idx := board.find(stopID)
		if idx < 0 {
			// остановка не из каталога: группа собирается из координат отправления
			lat, lon, err := parseMapCoord(p)
			if err != nil {
				return err
			}
			idx = board.add(domain.NewStation(stopID, "", "", lat, lon))
		}

		position := c.position(p)

		if err := p.Enter("itdDeparture"); err != nil {
			return err
		}

		if err := p.Require("itdDateTime"); err != nil {
			return err
		}
		planned, hasPlanned, err := c.parseItdDateTime(p)
		if err != nil {
			return err
		}

		var predicted *time.Time
		if p.Test("itdRTDateTime") {
			t, ok, err := c.parseItdDateTime(p)
			if err != nil {
				return err
			}
			if ok {
				predicted = &t
			}
		}

		if err := p.OptSkip("itdFrequencyInfo"); err != nil {
			return err
		}

		if err := p.Require("itdServingLine"); err != nil {
			return err
		}
		dest, err := destination(p.OptAttr("direction"), p.OptAttr("destID"))
		if err != nil {
			return p.Errorf("malformed destID %q", p.OptAttr("destID"))
		}
		sl, err := parseItdServingLine(p)
		if err != nil {
			return err
		}

		if err := p.Exit("itdDeparture"); err != nil {
			return err
		}

		if !hasPlanned {
			c.logger.Debug("Skipping departure without planned time",
				zap.Int("stop_id", stopID),
				zap.String("line", sl.line.Label()))
			continue
		}

		if predicted == nil && sl.realtime {
			predicted = predictedTime(planned, sl, board.delays)
		}

		board.groups[idx].Departures = append(board.groups[idx].Departures, domain.Departure{
			PlannedTime:   planned,
			PredictedTime: predicted,
			Line:          sl.line,
			Position:      position,
			Destination:   dest,
		})
	}

	return p.Exit("itdDepartureList")
}

// predictedTime - плановое время плюс задержка линии. Задержка берется из самого отправления,
// иначе из каталога линий, иначе считается нулевой.
func predictedTime(planned time.Time, sl *servingLine, catalogue map[string]int) *time.Time {
	delay := 0
	switch {
	case sl.hasDelay:
		delay = sl.delay
	default:
		if d, ok := catalogue[sl.line.ID]; ok {
			delay = d
		}
	}
	if delay == cancelledDelay {
		return nil
	}
	t := planned.Add(time.Duration(delay) * time.Minute)
	return &t
}
