package efa

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/infrastructure/efa/lines"
	"github.com/efa-transit/internal/infrastructure/efa/xmlpull"
	apperrors "github.com/efa-transit/internal/pkg/errors"
	"go.uber.org/zap"
)

const (
	noConnectionsCode = -4000
	lowFloorText      = "Niederflurwagen soweit verfügbar"
)

var sessionExpiredMarker = []byte("Your session has expired")

// QueryConnections ищет маршруты. Статусы NO_CONNECTIONS, AMBIGUOUS и т.п. - не ошибки.
func (c *Client) QueryConnections(ctx context.Context, q domain.ConnectionsQuery) (*domain.QueryConnectionsResult, error) {
	req, err := c.tripRequest(q)
	if err != nil {
		return nil, err
	}

	payload, uri, err := c.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	p, err := c.newParser(uri, payload)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}

	result, err := c.parseTripResponse(p, uri)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}
	return result, nil
}

// QueryMoreConnections догружает маршруты позже (later) или раньше предыдущего поиска.
// Токен одноразовый: повторный вызов с тем же Context - SessionExpiredError.
func (c *Client) QueryMoreConnections(ctx context.Context, queryContext *domain.Context, later bool) (*domain.QueryConnectionsResult, error) {
	if queryContext == nil || queryContext.CommandURI() == "" {
		return nil, apperrors.NewIllegalArgument("context cannot query more connections")
	}
	if (later && !queryContext.CanQueryLater()) || (!later && !queryContext.CanQueryEarlier()) {
		return nil, apperrors.NewIllegalArgument("context cannot query in this direction")
	}
	if !queryContext.Consume() {
		return nil, &apperrors.SessionExpiredError{URI: queryContext.CommandURI()}
	}

	payload, uri, err := c.fetch(ctx, c.commandRequest(queryContext.CommandURI(), later))
	if err != nil {
		return nil, err
	}
	if looksLikeHTML(payload) {
		if bytes.Contains(payload, sessionExpiredMarker) {
			c.logger.Info("EFA session expired", zap.String("uri", uri))
			return nil, &apperrors.SessionExpiredError{URI: uri}
		}
		return nil, c.protocolError(uri, payload)
	}

	p, err := c.newParser(uri, payload)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}
	result, err := c.parseTripResponse(p, uri)
	if err != nil {
		return nil, c.parseFailed(uri, err)
	}
	return result, nil
}

func statusResult(header *domain.ResultHeader, status domain.ConnectionsStatus) *domain.QueryConnectionsResult {
	return &domain.QueryConnectionsResult{Header: header, Status: status, Connections: []domain.Connection{}}
}

func (c *Client) parseTripResponse(p *xmlpull.Parser, uri string) (*domain.QueryConnectionsResult, error) {
	header, err := c.enterItdRequest(p)
	if err != nil {
		return nil, err
	}
	if err := p.OptSkip("itdLayoutParams"); err != nil {
		return nil, err
	}

	if err := p.Require("itdTripRequest"); err != nil {
		return nil, err
	}
	requestID, err := p.Attr("requestID")
	if err != nil {
		return nil, err
	}
	if err := p.Enter("itdTripRequest"); err != nil {
		return nil, err
	}

	if p.Test("itdMessage") {
		code, err := p.OptIntAttr("code", 0)
		if err != nil {
			return nil, err
		}
		if code == noConnectionsCode {
			return statusResult(header, domain.ConnectionsStatusNoConnections), nil
		}
		if err := p.Next(); err != nil {
			return nil, err
		}
	}
	for _, name := range []string{"itdPrintConfiguration", "itdAddress"} {
		if err := p.OptSkip(name); err != nil {
			return nil, err
		}
	}

	var (
		from, via, to                            *domain.Location
		ambiguousFrom, ambiguousVia, ambiguousTo []domain.Location
		ambiguous                                bool
	)
	for p.Test("itdOdv") {
		odv, err := enterOdv(p)
		if err != nil {
			return nil, err
		}

		switch odv.state {
		case "list":
			candidates, err := parseOdvNameElems(p, odv.place)
			if err != nil {
				return nil, err
			}
			switch odv.usage {
			case "origin":
				ambiguousFrom = candidates
			case "via":
				ambiguousVia = candidates
			case "destination":
				ambiguousTo = candidates
			default:
				return nil, p.Errorf("unknown odv usage %q", odv.usage)
			}
			ambiguous = true

		case "identified":
			if err := p.Require("odvNameElem"); err != nil {
				return nil, err
			}
			loc, err := parseOdvNameElem(p, odv.place)
			if err != nil {
				return nil, err
			}
			switch odv.usage {
			case "origin":
				from = &loc
			case "via":
				via = &loc
			case "destination":
				to = &loc
			default:
				return nil, p.Errorf("unknown odv usage %q", odv.usage)
			}

		case "notidentified":
			switch odv.usage {
			case "origin":
				return statusResult(header, domain.ConnectionsStatusUnknownFrom), nil
			case "via":
				return statusResult(header, domain.ConnectionsStatusUnknownVia), nil
			case "destination":
				return statusResult(header, domain.ConnectionsStatusUnknownTo), nil
			}
			return nil, p.Errorf("unknown odv usage %q", odv.usage)
		}

		if err := p.Exit("itdOdvName"); err != nil {
			return nil, err
		}
		if err := p.Exit("itdOdv"); err != nil {
			return nil, err
		}
	}

	if ambiguous {
		return &domain.QueryConnectionsResult{
			Header:        header,
			Status:        domain.ConnectionsStatusAmbiguous,
			Connections:   []domain.Connection{},
			AmbiguousFrom: ambiguousFrom,
			AmbiguousVia:  ambiguousVia,
			AmbiguousTo:   ambiguousTo,
		}, nil
	}

	invalidDate, err := parseTripDateTime(p)
	if err != nil {
		return nil, err
	}
	if invalidDate {
		return statusResult(header, domain.ConnectionsStatusInvalidDate), nil
	}

	found, err := skipToRouteList(p)
	if err != nil {
		return nil, err
	}
	if !found {
		return statusResult(header, domain.ConnectionsStatusNoConnections), nil
	}

	connections, err := c.parseRouteList(p)
	if err != nil {
		return nil, err
	}

	return &domain.QueryConnectionsResult{
		Header:      header,
		Status:      domain.ConnectionsStatusOK,
		URI:         uri,
		From:        from,
		Via:         via,
		To:          to,
		Context:     domain.NewContext(c.commandLink(header.SessionID, requestID)),
		Connections: connections,
	}, nil
}

// parseTripDateTime проверяет itdTripDateTime. true - сервер отклонил дату.
func parseTripDateTime(p *xmlpull.Parser) (bool, error) {
	if err := p.Enter("itdTripDateTime"); err != nil {
		return false, err
	}
	if err := p.Enter("itdDateTime"); err != nil {
		return false, err
	}
	if err := p.Enter("itdDate"); err != nil {
		return false, err
	}
	if p.Test("itdMessage") {
		message, err := p.ValueTag("itdMessage")
		if err != nil {
			return false, err
		}
		if strings.TrimSpace(message) == "invalid date" {
			return true, nil
		}
		return false, p.Errorf("unknown date message %q", message)
	}
	for _, name := range []string{"itdDate", "itdDateTime", "itdTripDateTime"} {
		if err := p.Exit(name); err != nil {
			return false, err
		}
	}
	return false, nil
}

// skipToRouteList ищет itdRouteList на уровне itdTripRequest или внутри itdItinerary
func skipToRouteList(p *xmlpull.Parser) (bool, error) {
	for !p.AtEnd() {
		switch p.Name() {
		case "itdRouteList":
			return true, nil
		case "itdItinerary":
			if err := p.Enter("itdItinerary"); err != nil {
				return false, err
			}
			return p.SkipTo("itdRouteList")
		}
		if err := p.Next(); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (c *Client) parseRouteList(p *xmlpull.Parser) ([]domain.Connection, error) {
	if err := p.Enter("itdRouteList"); err != nil {
		return nil, err
	}

	connections := []domain.Connection{}
	for p.Test("itdRoute") {
		connection, cancelled, err := c.parseRoute(p)
		if err != nil {
			return nil, err
		}
		if cancelled {
			c.logger.Debug("Dropping cancelled connection", zap.String("id", connection.ID))
			continue
		}
		connections = append(connections, *connection)
	}

	if err := p.Exit("itdRouteList"); err != nil {
		return nil, err
	}
	return connections, nil
}

// parseRoute разбирает один маршрут. cancelled == true, если хотя бы один участок отменен.
func (c *Client) parseRoute(p *xmlpull.Parser) (*domain.Connection, bool, error) {
	id := ""
	if c.cfg.UseRouteIndexAsID {
		id = p.OptAttr("routeIndex") + "-" + p.OptAttr("routeTripIndex")
	}
	numChanges, err := p.IntAttr("changes")
	if err != nil {
		return nil, false, err
	}
	if err := p.Enter("itdRoute"); err != nil {
		return nil, false, err
	}
	if err := p.OptSkipAll("itdDateTime"); err != nil {
		return nil, false, err
	}
	if err := p.OptSkip("itdMapItemList"); err != nil {
		return nil, false, err
	}

	if err := p.Enter("itdPartialRouteList"); err != nil {
		return nil, false, err
	}

	connection := &domain.Connection{ID: id, NumChanges: numChanges, Parts: []domain.Part{}}
	first := true
	cancelled := false

	for p.Test("itdPartialRoute") {
		leg, err := c.parsePartialRoute(p)
		if err != nil {
			return nil, false, err
		}
		if first {
			connection.From = leg.departure.location
			first = false
		}
		connection.To = leg.arrival.location
		cancelled = cancelled || leg.cancelled

		if leg.part == nil {
			continue
		}
		if fw, ok := leg.part.(*domain.Footway); ok {
			connection.Parts = appendFootway(connection.Parts, fw)
			continue
		}
		connection.Parts = append(connection.Parts, leg.part)
	}

	if err := p.Exit("itdPartialRouteList"); err != nil {
		return nil, false, err
	}

	if p.Test("itdFare") {
		fares, err := parseItdFare(p)
		if err != nil {
			return nil, false, err
		}
		connection.Fares = fares
	}

	if err := p.Exit("itdRoute"); err != nil {
		return nil, false, err
	}
	return connection, cancelled, nil
}

// appendFootway добавляет пеший участок, сливая его с предыдущим пешим участком
func appendFootway(parts []domain.Part, fw *domain.Footway) []domain.Part {
	if len(parts) == 0 {
		return append(parts, fw)
	}
	last, ok := parts[len(parts)-1].(*domain.Footway)
	if !ok {
		return append(parts, fw)
	}

	var path []domain.Point
	if len(last.Path) > 0 || len(fw.Path) > 0 {
		path = make([]domain.Point, 0, len(last.Path)+len(fw.Path))
		path = append(path, last.Path...)
		path = append(path, fw.Path...)
	}

	parts[len(parts)-1] = &domain.Footway{
		Min:      last.Min + fw.Min,
		Distance: last.Distance + fw.Distance,
		Transfer: last.Transfer || fw.Transfer,
		From:     last.From,
		To:       fw.To,
		Path:     path,
	}
	return parts
}

// routePoint - точка отправления или прибытия участка
type routePoint struct {
	location domain.Location
	position string
	time     time.Time
	// target - плановое время, если time - прогноз
	target *time.Time
}

// planned - плановое время и прогноз, если сервер его прислал
func (rp routePoint) planned() (time.Time, *time.Time) {
	if rp.target != nil {
		predicted := rp.time
		return *rp.target, &predicted
	}
	return rp.time, nil
}

func (c *Client) parseRoutePoint(p *xmlpull.Parser, usage string) (*routePoint, error) {
	if err := p.Require("itdPoint"); err != nil {
		return nil, err
	}
	if got := p.OptAttr("usage"); got != usage {
		return nil, p.Errorf("expected itdPoint usage %q, got %q", usage, got)
	}
	loc, err := parseItdPointAttributes(p)
	if err != nil {
		return nil, err
	}
	rp := &routePoint{location: loc, position: c.position(p)}

	if err := p.Enter("itdPoint"); err != nil {
		return nil, err
	}
	if err := p.OptSkip("itdMapItemList"); err != nil {
		return nil, err
	}
	if err := p.Require("itdDateTime"); err != nil {
		return nil, err
	}
	t, ok, err := c.parseItdDateTime(p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.Errorf("itdPoint %q without time", usage)
	}
	rp.time = t

	if p.Test("itdDateTimeTarget") {
		target, ok, err := c.parseItdDateTime(p)
		if err != nil {
			return nil, err
		}
		if ok {
			rp.target = &target
		}
	}

	if err := p.Exit("itdPoint"); err != nil {
		return nil, err
	}
	return rp, nil
}

// partialRoute - разобранный участок; part == nil для служебных участков
type partialRoute struct {
	departure *routePoint
	arrival   *routePoint
	part      domain.Part
	cancelled bool
}

func (c *Client) parsePartialRoute(p *xmlpull.Parser) (*partialRoute, error) {
	routeType, err := p.Attr("type")
	if err != nil {
		return nil, err
	}
	distance, err := p.OptIntAttr("distance", 0)
	if err != nil {
		return nil, err
	}
	if err := p.Enter("itdPartialRoute"); err != nil {
		return nil, err
	}

	leg := &partialRoute{}
	if leg.departure, err = c.parseRoutePoint(p, "departure"); err != nil {
		return nil, err
	}
	if leg.arrival, err = c.parseRoutePoint(p, "arrival"); err != nil {
		return nil, err
	}

	if err := p.Require("itdMeansOfTransport"); err != nil {
		return nil, err
	}
	productName := p.OptAttr("productName")

	switch {
	case routeType == "IT" || productName == "Fussweg" || productName == "Taxi":
		fw, err := c.parseFootway(p, leg, distance, productName == "Taxi")
		if err != nil {
			return nil, err
		}
		leg.part = fw

	case productName == "gesicherter Anschluss" || productName == "nicht umsteigen":
		// служебный участок без перемещения
		if err := p.Next(); err != nil {
			return nil, err
		}

	case routeType == "PT":
		trip, cancelled, err := c.parsePublicTransport(p, leg)
		if err != nil {
			return nil, err
		}
		leg.part = trip
		leg.cancelled = cancelled

	default:
		return nil, p.Errorf("unknown partial route type %q product %q", routeType, productName)
	}

	if err := p.Exit("itdPartialRoute"); err != nil {
		return nil, err
	}
	return leg, nil
}

func (c *Client) parseFootway(p *xmlpull.Parser, leg *partialRoute, distance int, transfer bool) (*domain.Footway, error) {
	minutes := int(leg.arrival.time.Sub(leg.departure.time) / time.Minute)

	if err := p.Next(); err != nil {
		return nil, err
	}
	for _, name := range []string{"itdStopSeq", "itdFootPathInfo"} {
		if err := p.OptSkip(name); err != nil {
			return nil, err
		}
	}

	var path []domain.Point
	if p.Test("itdPathCoordinates") {
		var err error
		if path, err = parseItdPathCoordinates(p); err != nil {
			return nil, err
		}
	}

	return &domain.Footway{
		Min:      minutes,
		Distance: distance,
		Transfer: transfer,
		From:     leg.departure.location,
		To:       leg.arrival.location,
		Path:     path,
	}, nil
}

func (c *Client) parsePublicTransport(p *xmlpull.Parser, leg *partialRoute) (*domain.Trip, bool, error) {
	dest, err := destination(p.OptAttr("destination"), p.OptAttr("destID"))
	if err != nil {
		return nil, false, p.Errorf("malformed destID %q", p.OptAttr("destID"))
	}

	symbol := p.OptAttr("symbol")
	in := lines.Input{
		Mot:       p.OptAttr("motType"),
		Symbol:    symbol,
		Name:      p.OptAttr("shortname"),
		LongName:  p.OptAttr("name"),
		TrainType: p.OptAttr("trainType"),
		TrainNum:  p.OptAttr("shortname"),
		TrainName: p.OptAttr("trainName"),
	}

	if err := p.Enter("itdMeansOfTransport"); err != nil {
		return nil, false, err
	}
	if err := p.Require("motDivaParams"); err != nil {
		return nil, false, err
	}
	var lineID string
	for i, attr := range []string{"network", "line", "supplement", "direction", "project"} {
		v, err := p.Attr(attr)
		if err != nil {
			return nil, false, err
		}
		if i > 0 {
			lineID += ":"
		}
		lineID += v
	}
	if err := p.Exit("itdMeansOfTransport"); err != nil {
		return nil, false, err
	}

	var departureDelay, arrivalDelay *int
	cancelled := false
	if p.Test("itdRBLControlled") {
		dep, err := p.OptIntAttr("delayMinutes", 0)
		if err != nil {
			return nil, false, err
		}
		arr, err := p.OptIntAttr("delayMinutesArr", 0)
		if err != nil {
			return nil, false, err
		}
		cancelled = dep == cancelledDelay || arr == cancelledDelay
		departureDelay, arrivalDelay = &dep, &arr
		if err := p.Next(); err != nil {
			return nil, false, err
		}
	}

	lowFloor := false
	message := ""
	if p.Test("itdInfoTextList") {
		if err := p.Enter("itdInfoTextList"); err != nil {
			return nil, false, err
		}
		for p.Test("infoTextListElem") {
			text, err := p.ValueTag("infoTextListElem")
			if err != nil {
				return nil, false, err
			}
			text = normalizeLocationName(text)
			switch {
			case text == lowFloorText:
				lowFloor = true
			case containsFold(text, "ruf"):
				// RufBus, RufTaxi
				message = text
			}
		}
		if err := p.Exit("itdInfoTextList"); err != nil {
			return nil, false, err
		}
	}

	for _, name := range []string{"itdFootPathInfo", "infoLink"} {
		if err := p.OptSkip(name); err != nil {
			return nil, false, err
		}
	}

	var intermediate []domain.Stop
	if p.Test("itdStopSeq") {
		if intermediate, err = c.parseStopSeq(p, leg, departureDelay, arrivalDelay); err != nil {
			return nil, false, err
		}
	}

	var path []domain.Point
	if p.Test("itdPathCoordinates") {
		if path, err = parseItdPathCoordinates(p); err != nil {
			return nil, false, err
		}
	}

	wheelChair := false
	if p.Test("genAttrList") {
		if wheelChair, err = parseGenAttrList(p); err != nil {
			return nil, false, err
		}
	}

	// следующие отправления не используются
	if err := p.OptSkip("nextDeps"); err != nil {
		return nil, false, err
	}

	var attrs []domain.LineAttr
	if wheelChair || lowFloor {
		attrs = append(attrs, domain.LineAttrWheelChairAccess)
	}
	if lowFloor {
		attrs = append(attrs, domain.LineAttrLowFloor)
	}

	var line domain.Line
	if symbol == "AST" {
		line = domain.Line{
			ID:         lineID,
			Product:    domain.ProductBus,
			Name:       "AST",
			Style:      lines.StyleFor(domain.ProductBus),
			Attributes: attrs,
		}
	} else {
		if line, err = newLine(lineID, in, attrs, ""); err != nil {
			return nil, false, err
		}
	}

	plannedDep, predictedDep := leg.departure.planned()
	if predictedDep == nil && departureDelay != nil && *departureDelay != cancelledDelay {
		t := plannedDep.Add(time.Duration(*departureDelay) * time.Minute)
		predictedDep = &t
	}
	plannedArr, predictedArr := leg.arrival.planned()
	if predictedArr == nil && arrivalDelay != nil && *arrivalDelay != cancelledDelay {
		t := plannedArr.Add(time.Duration(*arrivalDelay) * time.Minute)
		predictedArr = &t
	}

	return &domain.Trip{
		Line:        line,
		Destination: dest,
		Departure: domain.Stop{
			Location:           leg.departure.location,
			PlannedDeparture:   &plannedDep,
			PredictedDeparture: predictedDep,
			DeparturePosition:  leg.departure.position,
		},
		Arrival: domain.Stop{
			Location:         leg.arrival.location,
			PlannedArrival:   &plannedArr,
			PredictedArrival: predictedArr,
			ArrivalPosition:  leg.arrival.position,
		},
		IntermediateStops: intermediate,
		Path:              path,
		Message:           message,
	}, cancelled, nil
}

// parseStopSeq читает остановки участка без первой и последней
func (c *Client) parseStopSeq(p *xmlpull.Parser, leg *partialRoute, departureDelay, arrivalDelay *int) ([]domain.Stop, error) {
	if err := p.Enter("itdStopSeq"); err != nil {
		return nil, err
	}

	stops := []domain.Stop{}
	for p.Test("itdPoint") {
		loc, err := parseItdPointAttributes(p)
		if err != nil {
			return nil, err
		}
		position := c.position(p)

		if err := p.Enter("itdPoint"); err != nil {
			return nil, err
		}
		if err := p.OptSkip("itdMapItemList"); err != nil {
			return nil, err
		}
		if err := p.Require("itdDateTime"); err != nil {
			return nil, err
		}

		stop := domain.Stop{Location: loc, ArrivalPosition: position, DeparturePosition: position}

		arr, ok, err := c.parseItdDateTime(p)
		if err != nil {
			return nil, err
		}
		if ok {
			stop.PlannedArrival = &arr
			stop.PredictedArrival = withDelay(arr, arrivalDelay)
		}

		if p.Test("itdDateTime") {
			dep, ok, err := c.parseItdDateTime(p)
			if err != nil {
				return nil, err
			}
			if ok {
				stop.PlannedDeparture = &dep
				stop.PredictedDeparture = withDelay(dep, departureDelay)
			}
		}

		if err := p.Exit("itdPoint"); err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}

	if err := p.Exit("itdStopSeq"); err != nil {
		return nil, err
	}

	// первая и последняя остановки - точки отправления и прибытия участка
	if len(stops) >= 2 {
		if stops[len(stops)-1].Location.ID != leg.arrival.location.ID {
			return nil, p.Errorf("stop sequence does not end at arrival %d", leg.arrival.location.ID)
		}
		if stops[0].Location.ID != leg.departure.location.ID {
			return nil, p.Errorf("stop sequence does not start at departure %d", leg.departure.location.ID)
		}
		stops = stops[1 : len(stops)-1]
	}
	return stops, nil
}

func withDelay(t time.Time, delay *int) *time.Time {
	if delay == nil || *delay == cancelledDelay {
		return nil
	}
	predicted := t.Add(time.Duration(*delay) * time.Minute)
	return &predicted
}

// parseGenAttrList возвращает true, если линия доступна для инвалидных колясок
func parseGenAttrList(p *xmlpull.Parser) (bool, error) {
	if err := p.Enter("genAttrList"); err != nil {
		return false, err
	}

	wheelChair := false
	for p.Test("genAttrElem") {
		if err := p.Enter("genAttrElem"); err != nil {
			return false, err
		}
		name, err := p.ValueTag("name")
		if err != nil {
			return false, err
		}
		value, err := p.ValueTag("value")
		if err != nil {
			return false, err
		}
		if err := p.Exit("genAttrElem"); err != nil {
			return false, err
		}
		if strings.TrimSpace(name) == "PlanWheelChairAccess" && strings.TrimSpace(value) == "1" {
			wheelChair = true
		}
	}

	if err := p.Exit("genAttrList"); err != nil {
		return false, err
	}
	return wheelChair, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
