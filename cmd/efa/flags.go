package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/infrastructure/efa"
	"github.com/efa-transit/internal/pkg/utils"
)

const tripTimeLayout = "2006-01-02 15:04"

// locationFlags - флаги одной локации маршрута: --<prefix>-id, --<prefix>-name и т.д.
func locationFlags(prefix string, required bool) []cli.Flag {
	usage := ""
	if required {
		usage = " (one of id, coordinate or name is required)"
	}
	return []cli.Flag{
		&cli.IntFlag{Name: prefix + "-id", Usage: prefix + " station id" + usage},
		&cli.StringFlag{Name: prefix + "-type", Usage: "STATION, POI, ADDRESS, COORDINATE or ANY"},
		&cli.Float64Flag{Name: prefix + "-lat"},
		&cli.Float64Flag{Name: prefix + "-lon"},
		&cli.StringFlag{Name: prefix + "-place"},
		&cli.StringFlag{Name: prefix + "-name"},
	}
}

// flagValues - доступ к значениям флагов, в тестах подменяется картой
type flagValues interface {
	Int(name string) int
	Float64(name string) float64
	String(name string) string
	IsSet(name string) bool
}

// locationFromFlags собирает локацию. Без --<prefix>-type тип выводится:
// id - станция, только координата - координата, иначе ANY.
func locationFromFlags(c flagValues, prefix string) (domain.Location, bool) {
	l := domain.Location{
		ID:    c.Int(prefix + "-id"),
		Lat:   utils.ToMicroDegrees(c.Float64(prefix + "-lat")),
		Lon:   utils.ToMicroDegrees(c.Float64(prefix + "-lon")),
		Place: c.String(prefix + "-place"),
		Name:  c.String(prefix + "-name"),
	}
	if !l.HasID() && !l.HasLocation() && !l.HasName() {
		return l, false
	}

	switch {
	case c.IsSet(prefix + "-type"):
		l.Type = domain.LocationType(strings.ToUpper(c.String(prefix + "-type")))
	case l.HasID():
		l.Type = domain.LocationTypeStation
	case l.HasLocation() && !l.HasName():
		l.Type = domain.LocationTypeCoordinate
	default:
		l.Type = domain.LocationTypeAny
	}
	return l, true
}

// nearbyLocation - станция по id или координата
func nearbyLocation(id int, lat, lon float64) (domain.Location, error) {
	if id > 0 {
		return domain.NewStation(id, "", "", 0, 0), nil
	}
	if lat == 0 && lon == 0 {
		return domain.Location{}, fmt.Errorf("either --id or --lat/--lon is required")
	}
	if !utils.ValidateCoordinates(lat, lon) {
		return domain.Location{}, fmt.Errorf("coordinate %f,%f is out of range", lat, lon)
	}
	return domain.NewCoordinate(utils.ToMicroDegrees(lat), utils.ToMicroDegrees(lon)), nil
}

// tripQuery собирает параметры поиска маршрута из флагов
func tripQuery(c *cli.Context) (domain.ConnectionsQuery, error) {
	loc, err := time.LoadLocation(efa.DefaultTimeZone)
	if err != nil {
		return domain.ConnectionsQuery{}, err
	}
	return buildTripQuery(c, c.StringSlice("product"), c.Bool("arrival"), c.Bool("bike"), time.Now().In(loc))
}

func buildTripQuery(c flagValues, products []string, arrival, bike bool, now time.Time) (domain.ConnectionsQuery, error) {
	q := domain.ConnectionsQuery{
		Departing:      !arrival,
		WalkSpeed:      domain.WalkSpeed(strings.ToUpper(c.String("walk-speed"))),
		Accessibility:  domain.Accessibility(strings.ToUpper(c.String("accessibility"))),
		NumConnections: c.Int("num"),
		Time:           now,
	}

	from, ok := locationFromFlags(c, "from")
	if !ok {
		return q, fmt.Errorf("from location needs an id, coordinate or name")
	}
	to, ok := locationFromFlags(c, "to")
	if !ok {
		return q, fmt.Errorf("to location needs an id, coordinate or name")
	}
	q.From, q.To = from, to
	if via, ok := locationFromFlags(c, "via"); ok {
		q.Via = &via
	}

	for _, l := range []domain.Location{q.From, q.To} {
		if err := l.Validate(); err != nil {
			return q, err
		}
	}
	if q.Via != nil {
		if err := q.Via.Validate(); err != nil {
			return q, err
		}
	}

	if raw := c.String("time"); raw != "" {
		t, err := time.ParseInLocation(tripTimeLayout, raw, now.Location())
		if err != nil {
			return q, fmt.Errorf("invalid --time %q, expected %q", raw, tripTimeLayout)
		}
		q.Time = t
	}

	for _, raw := range products {
		p, ok := domain.ParseProduct(strings.ToUpper(raw))
		if !ok || p == domain.ProductUnknown {
			return q, fmt.Errorf("unknown product %q", raw)
		}
		q.Products = append(q.Products, p)
	}
	if bike {
		q.Options = []domain.TripOption{domain.TripOptionBike}
	}
	return q, nil
}
