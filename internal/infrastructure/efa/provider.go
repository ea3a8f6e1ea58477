package efa

import (
	"fmt"
	"strings"
	"time"

	"github.com/efa-transit/internal/pkg/validator"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	DefaultDepartureMonitorEndpoint = "XSLT_DM_REQUEST"
	DefaultTripEndpoint             = "XSLT_TRIP_REQUEST2"
	DefaultStopFinderEndpoint       = "XML_STOPFINDER_REQUEST"
	DefaultCoordEndpoint            = "XML_COORD_REQUEST"

	DefaultRequestURLEncoding = "ISO-8859-1"
	DefaultTimeZone           = "Europe/Berlin"
	DefaultLanguage           = "de"
)

// ProviderConfig - неизменяемая конфигурация одного EFA-сервера.
// Все провайдеры используют один и тот же движок и отличаются только этими полями.
type ProviderConfig struct {
	ID   ProviderID `validate:"required"`
	Name string     `validate:"required"`

	// BaseURL - общий префикс эндпоинтов, заканчивается на "/"
	BaseURL string `validate:"required,url"`

	DepartureMonitorEndpoint string
	TripEndpoint             string
	StopFinderEndpoint       string
	CoordEndpoint            string

	// AdditionalQueryParameter добавляется к каждому запросу как есть ("a=b")
	AdditionalQueryParameter string

	CanAcceptPoiID     bool
	NeedsSpEncID       bool
	IncludeRegionID    bool
	RequestURLEncoding string
	HTTPReferer        string
	HTTPRefererTrip    string
	HTTPPost           bool
	SuppressPositions  bool
	UseRouteIndexAsID  bool
	UseLineRestriction bool

	// XMLStopFinder - автодополнение через XML вместо JSON
	XMLStopFinder bool

	TimeZone string
	Language string
}

// DefaultProviderConfig - конфигурация со значениями по умолчанию
func DefaultProviderConfig(id ProviderID, name, baseURL string) ProviderConfig {
	return ProviderConfig{
		ID:                       id,
		Name:                     name,
		BaseURL:                  baseURL,
		DepartureMonitorEndpoint: DefaultDepartureMonitorEndpoint,
		TripEndpoint:             DefaultTripEndpoint,
		StopFinderEndpoint:       DefaultStopFinderEndpoint,
		CoordEndpoint:            DefaultCoordEndpoint,
		IncludeRegionID:          true,
		RequestURLEncoding:       DefaultRequestURLEncoding,
		UseRouteIndexAsID:        true,
		UseLineRestriction:       true,
		TimeZone:                 DefaultTimeZone,
		Language:                 DefaultLanguage,
	}
}

// WithBaseURL возвращает копию с другим адресом сервера
func (c ProviderConfig) WithBaseURL(baseURL string) ProviderConfig {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c.BaseURL = baseURL
	return c
}

// Validate проверяет конфигурацию
func (c ProviderConfig) Validate() error {
	if err := validator.Validate(c); err != nil {
		return fmt.Errorf("invalid provider config %q: %w", c.ID, err)
	}
	if _, err := c.encoding(); err != nil {
		return err
	}
	if _, err := c.location(); err != nil {
		return err
	}
	return nil
}

func (c ProviderConfig) endpoint(name, def string) string {
	if name == "" {
		name = def
	}
	return c.BaseURL + name
}

func (c ProviderConfig) departureMonitorURL() string {
	return c.endpoint(c.DepartureMonitorEndpoint, DefaultDepartureMonitorEndpoint)
}

func (c ProviderConfig) tripURL() string {
	return c.endpoint(c.TripEndpoint, DefaultTripEndpoint)
}

func (c ProviderConfig) stopFinderURL() string {
	return c.endpoint(c.StopFinderEndpoint, DefaultStopFinderEndpoint)
}

func (c ProviderConfig) coordURL() string {
	return c.endpoint(c.CoordEndpoint, DefaultCoordEndpoint)
}

// tripReferer - Referer для запросов маршрута
func (c ProviderConfig) tripReferer() string {
	if c.HTTPRefererTrip != "" {
		return c.HTTPRefererTrip
	}
	return c.HTTPReferer
}

func (c ProviderConfig) encoding() (encoding.Encoding, error) {
	name := c.RequestURLEncoding
	if name == "" {
		name = DefaultRequestURLEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported request encoding %q: %w", name, err)
	}
	return enc, nil
}

func (c ProviderConfig) location() (*time.Location, error) {
	name := c.TimeZone
	if name == "" {
		name = DefaultTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

func (c ProviderConfig) language() string {
	if c.Language == "" {
		return DefaultLanguage
	}
	return c.Language
}
