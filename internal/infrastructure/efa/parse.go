package efa

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/infrastructure/efa/lines"
	"github.com/efa-transit/internal/infrastructure/efa/xmlpull"
	apperrors "github.com/efa-transit/internal/pkg/errors"
)

var (
	whitespacePattern   = regexp.MustCompile(`\s+`)
	platformPattern     = regexp.MustCompile(`(?i)^#?(\d+)$`)
	platformNamePattern = regexp.MustCompile(`(?i)^(?:Gleis|Gl\.|Bstg\.)?\s*(\d+)\s*(?:([A-Z])\s*(?:-\s*([A-Z]))?)?$`)
)

// normalizeLocationName схлопывает пробелы; пустое имя остается пустым
func normalizeLocationName(name string) string {
	if name == "" {
		return ""
	}
	return whitespacePattern.ReplaceAllString(name, " ")
}

// normalizePlatform приводит платформу к короткому виду: "#07" -> "7", "Gleis 3 A-B" -> "3A-B"
func normalizePlatform(platform, platformName string) string {
	if platform != "" {
		if m := platformPattern.FindStringSubmatch(platform); m != nil {
			return trimLeadingZeros(m[1])
		}
		return platform
	}

	if platformName != "" {
		m := platformNamePattern.FindStringSubmatch(platformName)
		if m == nil {
			return platformName
		}
		simple := trimLeadingZeros(m[1])
		switch {
		case m[2] != "" && m[3] != "":
			return simple + m[2] + "-" + m[3]
		case m[2] != "":
			return simple + m[2]
		}
		return simple
	}

	return ""
}

func trimLeadingZeros(digits string) string {
	if n, err := strconv.Atoi(digits); err == nil {
		return strconv.Itoa(n)
	}
	return digits
}

// position - платформа текущего тега, если провайдер их не скрывает
func (c *Client) position(p *xmlpull.Parser) string {
	if c.cfg.SuppressPositions {
		return ""
	}
	return normalizePlatform(p.OptAttr("platform"), p.OptAttr("platformName"))
}

func roundCoord(v float64) int {
	return int(math.Round(v))
}

// parseMapCoord читает координату текущего тега по атрибутам mapName/x/y
func parseMapCoord(p *xmlpull.Parser) (lat, lon int, err error) {
	mapName := p.OptAttr("mapName")
	if mapName == "" {
		return 0, 0, nil
	}
	if mapName != "WGS84" {
		return 0, 0, p.Errorf("unknown mapName %q", mapName)
	}
	x, err := p.OptFloatAttr("x")
	if err != nil {
		return 0, 0, err
	}
	y, err := p.OptFloatAttr("y")
	if err != nil {
		return 0, 0, err
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, p.Errorf("mapName WGS84 without x/y")
	}
	return roundCoord(y), roundCoord(x), nil
}

// parseItdPointAttributes - станция из атрибутов itdPoint
func parseItdPointAttributes(p *xmlpull.Parser) (domain.Location, error) {
	id, err := p.IntAttr("stopID")
	if err != nil {
		return domain.Location{}, err
	}
	place := normalizeLocationName(p.OptAttr("locality"))
	name := normalizeLocationName(p.OptAttr("nameWO"))
	if name == "" {
		name = normalizeLocationName(p.OptAttr("name"))
	}
	lat, lon, err := parseMapCoord(p)
	if err != nil {
		return domain.Location{}, err
	}
	return domain.NewStation(id, place, name, lat, lon), nil
}

// parseItdDateTime разбирает текущий элемент (itdDateTime, itdRTDateTime, ...) целиком.
// ok == false означает "даты нет" (weekday < 0 или year == 0).
func (c *Client) parseItdDateTime(p *xmlpull.Parser) (t time.Time, ok bool, err error) {
	name := p.Name()
	if err = p.EnterAny(); err != nil {
		return time.Time{}, false, err
	}

	year, month, day, ok, err := c.parseItdDate(p)
	if err != nil {
		return time.Time{}, false, err
	}
	if ok {
		if err = p.Require("itdTime"); err != nil {
			return time.Time{}, false, err
		}
		hour, err := p.IntAttr("hour")
		if err != nil {
			return time.Time{}, false, err
		}
		minute, err := p.IntAttr("minute")
		if err != nil {
			return time.Time{}, false, err
		}
		if err = p.Next(); err != nil {
			return time.Time{}, false, err
		}
		t = time.Date(year, time.Month(month), day, hour, minute, 0, 0, c.loc)
	}

	if err = p.Exit(name); err != nil {
		return time.Time{}, false, err
	}
	return t, ok, nil
}

func (c *Client) parseItdDate(p *xmlpull.Parser) (year, month, day int, ok bool, err error) {
	if err = p.Require("itdDate"); err != nil {
		return
	}
	if year, err = p.IntAttr("year"); err != nil {
		return
	}
	if month, err = p.IntAttr("month"); err != nil {
		return
	}
	if day, err = p.IntAttr("day"); err != nil {
		return
	}
	weekday, err := p.IntAttr("weekday")
	if err != nil {
		return
	}
	if err = p.Next(); err != nil {
		return
	}

	if weekday < 0 || year == 0 {
		return 0, 0, 0, false, nil
	}
	if year < 1900 || year > 2100 {
		return 0, 0, 0, false, invalidData(p, "year", year)
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, false, invalidData(p, "month", month)
	}
	if day < 1 || day > 31 {
		return 0, 0, 0, false, invalidData(p, "day", day)
	}
	return year, month, day, true, nil
}

func invalidData(p *xmlpull.Parser, field string, value int) error {
	e := apperrors.NewInvalidDataError(field, strconv.Itoa(value))
	e.URI = p.URI()
	return e
}

// servingLine - разобранный itdServingLine
type servingLine struct {
	line     domain.Line
	realtime bool
	// delay - задержка в минутах, если сервер ее сообщил
	delay    int
	hasDelay bool
}

// newLine строит линию по результату нормализатора
func newLine(id string, in lines.Input, attrs []domain.LineAttr, message string) (domain.Line, error) {
	product, name, err := lines.Normalize(in)
	if err != nil {
		return domain.Line{}, err
	}
	return domain.Line{
		ID:         id,
		Product:    product,
		Name:       name,
		Style:      lines.StyleFor(product),
		Attributes: attrs,
		Message:    message,
	}, nil
}

// parseItdServingLine разбирает itdServingLine вместе с вложенными itdTrain/itdNoTrain
func parseItdServingLine(p *xmlpull.Parser) (*servingLine, error) {
	if err := p.Require("itdServingLine"); err != nil {
		return nil, err
	}
	motType := p.OptAttr("motType")
	symbol := p.OptAttr("symbol")
	number := p.OptAttr("number")
	stateless := p.OptAttr("stateless")
	slTrainType := p.OptAttr("trainType")
	slTrainName := p.OptAttr("trainName")
	trainNum := p.OptAttr("trainNum")
	realtime := p.OptAttr("realtime") == "1"

	sl := &servingLine{realtime: realtime}

	if err := p.Enter("itdServingLine"); err != nil {
		return nil, err
	}

	var itdTrainName, itdTrainType, message string
	if p.Test("itdTrain") {
		itdTrainName = p.OptAttr("name")
		itdTrainType = p.OptAttr("type")
		if err := readDelay(p, sl); err != nil {
			return nil, err
		}
		if err := p.Next(); err != nil {
			return nil, err
		}
	}
	if p.Test("itdNoTrain") {
		itdTrainName = p.OptAttr("name")
		itdTrainType = p.OptAttr("type")
		if err := readDelay(p, sl); err != nil {
			return nil, err
		}
		if err := p.Enter("itdNoTrain"); err != nil {
			return nil, err
		}
		text := p.Text()
		// RufBus, RufTaxi: текст с инструкцией по заказу
		if strings.Contains(strings.ToLower(itdTrainName), "ruf") && strings.Contains(strings.ToLower(text), "ruf") {
			message = strings.TrimSpace(text)
		}
		if err := p.Exit("itdNoTrain"); err != nil {
			return nil, err
		}
	}

	if err := p.Exit("itdServingLine"); err != nil {
		return nil, err
	}

	line, err := newLine(stateless, lines.Input{
		Mot:       motType,
		Symbol:    symbol,
		Name:      number,
		LongName:  number,
		TrainType: firstNotEmpty(slTrainType, itdTrainType),
		TrainNum:  trainNum,
		TrainName: firstNotEmpty(slTrainName, itdTrainName),
	}, nil, message)
	if err != nil {
		return nil, err
	}
	sl.line = line

	return sl, nil
}

func readDelay(p *xmlpull.Parser, sl *servingLine) error {
	if p.OptAttr("delay") == "" {
		return nil
	}
	delay, err := p.OptIntAttr("delay", 0)
	if err != nil {
		return err
	}
	sl.delay = delay
	sl.hasDelay = true
	return nil
}

func firstNotEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// destination - направление из атрибутов; без destID это локация типа ANY
func destination(name, idStr string) (*domain.Location, error) {
	name = normalizeLocationName(name)
	id := 0
	if idStr != "" {
		n, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, err
		}
		id = n
	}
	if id > 0 {
		loc := domain.NewStation(id, "", name, 0, 0)
		return &loc, nil
	}
	if name == "" {
		return nil, nil
	}
	loc := domain.NewAnyLocation(name)
	return &loc, nil
}

// parseItdPathCoordinates разбирает полилинию "x,y x,y ..."
func parseItdPathCoordinates(p *xmlpull.Parser) ([]domain.Point, error) {
	if err := p.Enter("itdPathCoordinates"); err != nil {
		return nil, err
	}

	ellipsoid, err := p.ValueTag("coordEllipsoid")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ellipsoid) != "WGS84" {
		return nil, p.Errorf("unknown ellipsoid %q", ellipsoid)
	}

	coordType, err := p.ValueTag("coordType")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(coordType) != "GEO_DECIMAL" {
		return nil, p.Errorf("unknown coordinate type %q", coordType)
	}

	if err := p.OptSkip("coordDecimalPlaces"); err != nil {
		return nil, err
	}

	raw, err := p.ValueTag("itdCoordinateString")
	if err != nil {
		return nil, err
	}
	path, err := parseCoordinateString(raw)
	if err != nil {
		return nil, p.Errorf("%v", err)
	}

	if err := p.Exit("itdPathCoordinates"); err != nil {
		return nil, err
	}
	return path, nil
}

func parseCoordinateString(raw string) ([]domain.Point, error) {
	fields := strings.Fields(raw)
	path := make([]domain.Point, 0, len(fields))
	for _, field := range fields {
		xs, ys, found := strings.Cut(field, ",")
		if !found {
			return nil, &coordError{field}
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, &coordError{field}
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, &coordError{field}
		}
		path = append(path, domain.Point{Lat: roundCoord(y), Lon: roundCoord(x)})
	}
	return path, nil
}

type coordError struct {
	value string
}

func (e *coordError) Error() string {
	return "malformed coordinate " + strconv.Quote(e.value)
}

// parseItdOdvPlace - место из itdOdvPlace, если оно идентифицировано
func parseItdOdvPlace(p *xmlpull.Parser) (string, error) {
	if err := p.Require("itdOdvPlace"); err != nil {
		return "", err
	}
	state := p.OptAttr("state")
	if err := p.Enter("itdOdvPlace"); err != nil {
		return "", err
	}

	place := ""
	if state == "identified" && p.Test("odvPlaceElem") {
		text, err := p.ValueTag("odvPlaceElem")
		if err != nil {
			return "", err
		}
		place = normalizeLocationName(strings.TrimSpace(text))
	}

	if err := p.Exit("itdOdvPlace"); err != nil {
		return "", err
	}
	return place, nil
}

// parseOdvNameElem - кандидат из odvNameElem
func parseOdvNameElem(p *xmlpull.Parser, defaultPlace string) (domain.Location, error) {
	if err := p.Require("odvNameElem"); err != nil {
		return domain.Location{}, err
	}

	anyType := p.OptAttr("anyType")
	idStr := p.OptAttr("id")
	stopIDStr := p.OptAttr("stopID")
	poiIDStr := p.OptAttr("poiID")
	streetIDStr := p.OptAttr("streetID")
	place := ""
	if anyType != "loc" {
		place = normalizeLocationName(p.OptAttr("locality"))
	}
	name := normalizeLocationName(p.OptAttr("objectName"))

	lat, lon, err := parseMapCoord(p)
	if err != nil {
		return domain.Location{}, err
	}

	atoi := func(attr, s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, p.Errorf("attribute %q is not an integer: %q", attr, s)
		}
		return n, nil
	}

	var (
		typ domain.LocationType
		id  int
	)
	switch {
	case anyType == "stop":
		typ = domain.LocationTypeStation
		id, err = atoi("id", idStr)
	case anyType == "poi" || anyType == "poiHierarchy":
		typ = domain.LocationTypePOI
		id, err = atoi("id", idStr)
	case anyType == "loc":
		typ = domain.LocationTypeAny
	case anyType == "postcode" || anyType == "street" || anyType == "crossing" ||
		anyType == "address" || anyType == "singlehouse" || anyType == "buildingname":
		typ = domain.LocationTypeAddress
	case stopIDStr != "":
		typ = domain.LocationTypeStation
		id, err = atoi("stopID", stopIDStr)
	case poiIDStr != "":
		typ = domain.LocationTypePOI
		id, err = atoi("poiID", poiIDStr)
	case idStr == "" && (lat != 0 || lon != 0):
		typ = domain.LocationTypeAddress
	case streetIDStr != "":
		typ = domain.LocationTypeAddress
		id, err = atoi("streetID", streetIDStr)
	default:
		return domain.Location{}, p.Errorf("unknown odvNameElem type: anyType=%q id=%q stopID=%q", anyType, idStr, stopIDStr)
	}
	if err != nil {
		return domain.Location{}, err
	}

	text, err := p.ValueTag("odvNameElem")
	if err != nil {
		return domain.Location{}, err
	}
	longName := normalizeLocationName(strings.TrimSpace(text))

	if place == "" {
		place = defaultPlace
	}
	if name == "" {
		name = longName
	}
	return domain.Location{Type: typ, ID: id, Lat: lat, Lon: lon, Place: place, Name: name}, nil
}

// parseItdOdvAssignedStop - станция, назначенная основной остановке
func parseItdOdvAssignedStop(p *xmlpull.Parser) (domain.Location, error) {
	id, err := p.IntAttr("stopID")
	if err != nil {
		return domain.Location{}, err
	}
	lat, lon, err := parseMapCoord(p)
	if err != nil {
		return domain.Location{}, err
	}
	place := normalizeLocationName(p.OptAttr("place"))

	text, err := p.ValueTag("itdOdvAssignedStop")
	if err != nil {
		return domain.Location{}, err
	}
	return domain.NewStation(id, place, normalizeLocationName(strings.TrimSpace(text)), lat, lon), nil
}

// odvName - состояние и содержимое itdOdv
type odvName struct {
	usage string
	state string
	place string
}

// enterOdv входит в itdOdv и itdOdvName, пропуская сообщение сервера
func enterOdv(p *xmlpull.Parser) (*odvName, error) {
	if err := p.Require("itdOdv"); err != nil {
		return nil, err
	}
	odv := &odvName{usage: p.OptAttr("usage")}
	if err := p.Enter("itdOdv"); err != nil {
		return nil, err
	}

	place, err := parseItdOdvPlace(p)
	if err != nil {
		return nil, err
	}
	odv.place = place

	if err := p.Require("itdOdvName"); err != nil {
		return nil, err
	}
	odv.state = p.OptAttr("state")
	if err := p.Enter("itdOdvName"); err != nil {
		return nil, err
	}
	if err := p.OptSkip("itdMessage"); err != nil {
		return nil, err
	}
	return odv, nil
}

// parseOdvNameElems читает все подряд идущие odvNameElem
func parseOdvNameElems(p *xmlpull.Parser, defaultPlace string) ([]domain.Location, error) {
	var result []domain.Location
	for p.Test("odvNameElem") {
		loc, err := parseOdvNameElem(p, defaultPlace)
		if err != nil {
			return nil, err
		}
		result = append(result, loc)
	}
	return result, nil
}

func containsLocation(list []domain.Location, loc domain.Location) bool {
	for _, l := range list {
		if l.Equal(loc) {
			return true
		}
	}
	return false
}
