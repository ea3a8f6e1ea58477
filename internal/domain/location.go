package domain

import (
	"fmt"
	"strings"
)

// LocationType - тип локации
type LocationType string

const (
	LocationTypeStation    LocationType = "STATION"
	LocationTypePOI        LocationType = "POI"
	LocationTypeAddress    LocationType = "ADDRESS"
	LocationTypeCoordinate LocationType = "COORDINATE"
	LocationTypeAny        LocationType = "ANY"
)

// IsValid проверяет, что тип локации известен
func (t LocationType) IsValid() bool {
	switch t {
	case LocationTypeStation, LocationTypePOI, LocationTypeAddress, LocationTypeCoordinate, LocationTypeAny:
		return true
	}
	return false
}

// Location - точка: станция, POI, адрес, координата или свободный текст.
// ID == 0 означает "нет идентификатора", Lat/Lon == 0/0 - "нет координаты".
// Координаты хранятся в микроградусах.
type Location struct {
	Type  LocationType `json:"type"`
	ID    int          `json:"id,omitempty"`
	Lat   int          `json:"lat,omitempty"`
	Lon   int          `json:"lon,omitempty"`
	Place string       `json:"place,omitempty"`
	Name  string       `json:"name,omitempty"`
}

// NewStation создает станцию по идентификатору
func NewStation(id int, place, name string, lat, lon int) Location {
	return Location{Type: LocationTypeStation, ID: id, Lat: lat, Lon: lon, Place: place, Name: name}
}

// NewCoordinate создает локацию-координату
func NewCoordinate(lat, lon int) Location {
	return Location{Type: LocationTypeCoordinate, Lat: lat, Lon: lon}
}

// NewAnyLocation создает локацию по свободному тексту
func NewAnyLocation(name string) Location {
	return Location{Type: LocationTypeAny, Name: name}
}

func (l Location) HasID() bool {
	return l.ID != 0
}

func (l Location) HasLocation() bool {
	return l.Lat != 0 || l.Lon != 0
}

func (l Location) HasName() bool {
	return l.Name != ""
}

// Validate - у локации должен быть хотя бы id, координата или имя
func (l Location) Validate() error {
	if !l.Type.IsValid() {
		return fmt.Errorf("unknown location type %q", l.Type)
	}
	if !l.HasID() && !l.HasLocation() && !l.HasName() {
		return fmt.Errorf("location has neither id, coordinate nor name")
	}
	return nil
}

// Equal - равенство по (type, id), если id есть, иначе по (name, place)
func (l Location) Equal(o Location) bool {
	if l.Type != o.Type {
		return false
	}
	if l.HasID() || o.HasID() {
		return l.ID == o.ID
	}
	return l.Name == o.Name && l.Place == o.Place
}

// UniqueShortName возвращает имя, пригодное для отображения
func (l Location) UniqueShortName() string {
	if l.Name != "" {
		return l.Name
	}
	if l.HasID() {
		return fmt.Sprintf("%d", l.ID)
	}
	return ""
}

func (l Location) String() string {
	var b strings.Builder
	b.WriteString(string(l.Type))
	b.WriteByte('<')
	if l.HasID() {
		fmt.Fprintf(&b, "%d", l.ID)
	}
	if l.HasLocation() {
		fmt.Fprintf(&b, "|%d,%d", l.Lat, l.Lon)
	}
	if l.Place != "" {
		b.WriteString("|" + l.Place)
	}
	if l.Name != "" {
		b.WriteString("|" + l.Name)
	}
	b.WriteByte('>')
	return b.String()
}

// Point - вершина полилинии маршрута в микроградусах
type Point struct {
	Lat int `json:"lat"`
	Lon int `json:"lon"`
}
