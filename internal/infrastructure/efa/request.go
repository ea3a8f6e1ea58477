package efa

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/efa-transit/internal/domain"
	apperrors "github.com/efa-transit/internal/pkg/errors"
	"github.com/efa-transit/internal/pkg/utils"
	"golang.org/x/text/encoding"
)

// anyObjFilter - 2=stop 4=street 8=address 16=crossing 32=poi 64=postcode
const anyObjFilter = 2 + 4 + 8 + 16 + 32 + 64

const (
	defaultNearbyMaxStations = 50
	defaultNearbyMaxDistance = 1320
	defaultNumConnections    = 4
)

var walkSpeeds = map[domain.WalkSpeed]string{
	domain.WalkSpeedSlow:   "slow",
	domain.WalkSpeedNormal: "normal",
	domain.WalkSpeedFast:   "fast",
}

type param struct {
	key   string
	value string
}

// params - упорядоченный набор параметров запроса.
// Сервер EFA чувствителен к порядку и кодировке, поэтому url.Values не подходит.
type params struct {
	enc  encoding.Encoding
	list []param
}

func (c *Client) newParams(outputFormat string) *params {
	p := &params{enc: c.enc}
	p.add("outputFormat", outputFormat)
	p.add("coordOutputFormat", "WGS84")
	if c.cfg.AdditionalQueryParameter != "" {
		key, value, _ := strings.Cut(c.cfg.AdditionalQueryParameter, "=")
		p.add(key, value)
	}
	return p
}

// add добавляет значение как есть
func (p *params) add(key string, value interface{}) {
	p.list = append(p.list, param{key: key, value: fmt.Sprint(value)})
}

// addEncoded добавляет текст, закодированный в кодировке провайдера
func (p *params) addEncoded(key, value string) {
	p.add(key, encodeValue(p.enc, value))
}

func (p *params) encode() string {
	var b strings.Builder
	for i, kv := range p.list {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv.key)
		b.WriteByte('=')
		b.WriteString(kv.value)
	}
	return b.String()
}

// get - значение параметра, для тестов и логов
func (p *params) get(key string) (string, bool) {
	for _, kv := range p.list {
		if kv.key == key {
			return kv.value, true
		}
	}
	return "", false
}

// encodeValue переводит строку в байты кодировки провайдера и экранирует их для URL.
// Непредставимые символы заменяются.
func encodeValue(enc encoding.Encoding, value string) string {
	encoded, err := encoding.ReplaceUnsupported(enc.NewEncoder()).String(value)
	if err != nil {
		encoded = value
	}
	return url.QueryEscape(encoded)
}

// request - подготовленный запрос к одному эндпоинту
type request struct {
	endpoint string
	params   *params
	referer  string
	// forceGet - команды постраничной догрузки всегда отправляются GET
	forceGet bool
}

func (r *request) uri(post bool) string {
	if post && !r.forceGet {
		return r.endpoint
	}
	if r.params == nil || len(r.params.list) == 0 {
		return r.endpoint
	}
	return r.endpoint + "?" + r.params.encode()
}

// locationTypeValue - значение type_<suffix> для локации
func locationTypeValue(loc domain.Location) (string, error) {
	switch loc.Type {
	case domain.LocationTypeStation:
		return "stop", nil
	case domain.LocationTypeAddress:
		// ADDRESS ищется через anyObjFilter
		return "any", nil
	case domain.LocationTypePOI:
		return "poi", nil
	case domain.LocationTypeAny:
		return "any", nil
	}
	return "", apperrors.NewIllegalArgument("cannot serialize location of type %s", loc.Type)
}

func locationValue(loc domain.Location) string {
	if (loc.Type == domain.LocationTypeStation || loc.Type == domain.LocationTypePOI) && loc.HasID() {
		return strconv.Itoa(loc.ID)
	}
	return loc.Name
}

// formatCoord - "lon:lat:WGS84" с шестью знаками
func formatCoord(lat, lon int) string {
	return fmt.Sprintf("%.6f:%.6f:WGS84", utils.FromMicroDegrees(lon), utils.FromMicroDegrees(lat))
}

// appendLocation добавляет пару type_<suffix>/name_<suffix>
func (c *Client) appendLocation(p *params, loc domain.Location, suffix string) error {
	if !loc.HasID() && !loc.HasLocation() && !loc.HasName() {
		return apperrors.NewIllegalArgument("location for %s has neither id, coordinate nor name", suffix)
	}

	switch {
	case c.cfg.CanAcceptPoiID && loc.Type == domain.LocationTypePOI && loc.HasID():
		p.add("type_"+suffix, "poiID")
		p.add("name_"+suffix, loc.ID)
	case (loc.Type == domain.LocationTypePOI || loc.Type == domain.LocationTypeAddress ||
		loc.Type == domain.LocationTypeCoordinate) && loc.HasLocation():
		p.add("type_"+suffix, "coord")
		p.add("name_"+suffix, formatCoord(loc.Lat, loc.Lon))
	default:
		typ, err := locationTypeValue(loc)
		if err != nil {
			return err
		}
		value := locationValue(loc)
		if value == "" {
			return apperrors.NewIllegalArgument("location for %s has no id or name usable as %s", suffix, typ)
		}
		p.add("type_"+suffix, typ)
		p.addEncoded("name_"+suffix, value)
	}
	return nil
}

func (c *Client) stopFinderRequest(text, outputFormat string) *request {
	p := c.newParams(outputFormat)
	p.add("locationServerActive", 1)
	if c.cfg.IncludeRegionID {
		// предпочитать свой регион
		p.add("regionID_sf", 1)
	}
	p.add("type_sf", "any")
	p.addEncoded("name_sf", text)
	if outputFormat == "XML" && c.cfg.NeedsSpEncID {
		p.add("SpEncId", 0)
	}
	p.add("anyObjFilter_sf", anyObjFilter)
	if outputFormat == "XML" {
		p.add("reducedAnyPostcodeObjFilter_sf", 64)
		p.add("reducedAnyTooManyObjFilter_sf", 2)
		p.add("useHouseNumberList", "true")
	} else {
		p.add("anyMaxSizeHitList", 500)
	}

	referer := c.cfg.HTTPReferer
	if outputFormat == "JSON" {
		referer = ""
	}
	return &request{endpoint: c.cfg.stopFinderURL(), params: p, referer: referer}
}

func (c *Client) coordRequest(lat, lon, maxDistance, maxStations int) *request {
	if maxStations == 0 {
		maxStations = defaultNearbyMaxStations
	}
	if maxDistance == 0 {
		maxDistance = defaultNearbyMaxDistance
	}

	p := c.newParams("XML")
	p.add("coord", formatCoord(lat, lon))
	p.add("coordListOutputFormat", "STRING")
	p.add("max", maxStations)
	p.add("inclFilter", 1)
	p.add("radius_1", maxDistance)
	p.add("type_1", "STOP")

	return &request{endpoint: c.cfg.coordURL(), params: p, referer: c.cfg.HTTPReferer}
}

func (c *Client) nearbyStationsRequest(stationID int) *request {
	p := c.newParams("XML")
	p.add("type_dm", "stop")
	p.add("name_dm", stationID)
	p.add("itOptionsActive", 1)
	p.add("ptOptionsActive", 1)
	p.add("useProxFootSearch", 1)
	p.add("mergeDep", 1)
	p.add("useAllStops", 1)
	p.add("mode", "direct")

	return &request{endpoint: c.cfg.departureMonitorURL(), params: p, referer: c.cfg.HTTPReferer}
}

func (c *Client) departureMonitorRequest(stationID, maxDepartures int, equivs bool) *request {
	p := c.newParams("XML")
	p.add("type_dm", "stop")
	p.add("name_dm", stationID)
	p.add("useRealtime", 1)
	p.add("mode", "direct")
	p.add("ptOptionsActive", 1)
	if equivs {
		p.add("deleteAssignedStops_dm", 0)
	} else {
		p.add("deleteAssignedStops_dm", 1)
	}
	p.add("mergeDep", 1)
	if maxDepartures > 0 {
		p.add("limit", maxDepartures)
	}

	return &request{endpoint: c.cfg.departureMonitorURL(), params: p, referer: c.cfg.HTTPReferer}
}

func (c *Client) tripRequest(q domain.ConnectionsQuery) (*request, error) {
	p := c.newParams("XML")
	p.add("sessionID", 0)
	p.add("requestID", 0)
	p.add("language", c.cfg.language())
	p.add("coordListOutputFormat", "STRING")

	if err := c.appendLocation(p, q.From, "origin"); err != nil {
		return nil, err
	}
	if err := c.appendLocation(p, q.To, "destination"); err != nil {
		return nil, err
	}
	if q.Via != nil {
		if err := c.appendLocation(p, *q.Via, "via"); err != nil {
			return nil, err
		}
	}

	when := q.Time.In(c.loc)
	p.add("itdDate", when.Format("20060102"))
	p.add("itdTime", when.Format("1504"))
	if q.Departing {
		p.add("itdTripDateTimeDepArr", "dep")
	} else {
		p.add("itdTripDateTimeDepArr", "arr")
	}

	numConnections := q.NumConnections
	if numConnections <= 0 {
		numConnections = defaultNumConnections
	}
	p.add("calcNumberOfTrips", numConnections)

	// общественный и индивидуальный транспорт
	p.add("ptOptionsActive", 1)
	p.add("itOptionsActive", 1)
	walkSpeed, ok := walkSpeeds[q.WalkSpeed]
	if !ok {
		walkSpeed = walkSpeeds[domain.WalkSpeedNormal]
	}
	p.add("changeSpeed", walkSpeed)

	switch q.Accessibility {
	case domain.AccessibilityBarrierFree:
		p.add("imparedOptionsActive", 1)
		p.add("wheelchair", "on")
		p.add("noSolidStairs", "on")
	case domain.AccessibilityLimited:
		p.add("imparedOptionsActive", 1)
		p.add("wheelchair", "on")
		p.add("lowPlatformVhcl", "on")
		p.add("noSolidStairs", "on")
	}

	if q.Products != nil {
		c.appendProducts(p, q.Products)
	}

	if q.HasOption(domain.TripOptionBike) {
		p.add("bikeTakeAlong", 1)
	}

	p.add("locationServerActive", 1)
	p.add("useRealtime", 1)
	// пешком, если так быстрее
	p.add("useProxFootSearch", 1)
	// следующее отправление на случай пропущенной пересадки
	p.add("nextDepsPerLeg", 1)

	return &request{endpoint: c.cfg.tripURL(), params: p, referer: c.cfg.tripReferer()}, nil
}

// appendProducts переводит фильтр классов транспорта в флаги inclMOT_*
func (c *Client) appendProducts(p *params, products []domain.Product) {
	p.add("includedMeans", "checkbox")

	hasHighSpeed := false
	seen := make(map[string]bool)
	on := func(mots ...int) {
		for _, mot := range mots {
			key := "inclMOT_" + strconv.Itoa(mot)
			if !seen[key] {
				seen[key] = true
				p.add(key, "on")
			}
		}
	}

	for _, product := range products {
		switch product {
		case domain.ProductHighSpeedTrain:
			hasHighSpeed = true
			on(0)
		case domain.ProductRegionalTrain:
			on(0)
		case domain.ProductSuburbanTrain:
			on(1)
		case domain.ProductSubway:
			on(2)
		case domain.ProductTram:
			on(3, 4)
		case domain.ProductBus:
			on(5, 6, 7)
		case domain.ProductOnDemand:
			on(10)
		case domain.ProductFerry:
			on(9)
		case domain.ProductCablecar:
			on(8)
		}
	}

	// прочие виды транспорта всегда включены
	on(11)

	// без этого сервер отдает поезда дальнего следования вопреки фильтру
	if c.cfg.UseLineRestriction && !hasHighSpeed {
		p.add("lineRestriction", 403)
	}
}

// commandLink - базовый URI для команд tripNext/tripPrev
func (c *Client) commandLink(sessionID, requestID string) string {
	var b strings.Builder
	b.WriteString(c.cfg.tripURL())
	b.WriteString("?sessionID=")
	b.WriteString(url.QueryEscape(sessionID))
	b.WriteString("&requestID=")
	b.WriteString(url.QueryEscape(requestID))
	b.WriteString("&coordListOutputFormat=STRING")
	b.WriteString("&calcNumberOfTrips=")
	b.WriteString(strconv.Itoa(defaultNumConnections))
	return b.String()
}

func (c *Client) commandRequest(commandURI string, later bool) *request {
	command := "tripPrev"
	if later {
		command = "tripNext"
	}
	return &request{
		endpoint: commandURI + "&command=" + command,
		referer:  c.cfg.tripReferer(),
		forceGet: true,
	}
}
