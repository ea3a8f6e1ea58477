package domain

import "time"

// WalkSpeed - скорость пешехода при пересадках
type WalkSpeed string

const (
	WalkSpeedSlow   WalkSpeed = "SLOW"
	WalkSpeedNormal WalkSpeed = "NORMAL"
	WalkSpeedFast   WalkSpeed = "FAST"
)

// Accessibility - требования к доступности
type Accessibility string

const (
	AccessibilityNeutral     Accessibility = "NEUTRAL"
	AccessibilityLimited     Accessibility = "LIMITED"
	AccessibilityBarrierFree Accessibility = "BARRIER_FREE"
)

// TripOption - дополнительные опции поиска
type TripOption string

const (
	TripOptionBike TripOption = "BIKE"
)

// ConnectionsQuery - параметры поиска маршрута
type ConnectionsQuery struct {
	From           Location
	Via            *Location
	To             Location
	Time           time.Time
	Departing      bool
	Products       []Product
	WalkSpeed      WalkSpeed
	Accessibility  Accessibility
	Options        []TripOption
	NumConnections int
}

// HasProduct проверяет, включен ли класс транспорта в фильтр.
// Пустой фильтр включает все классы.
func (q ConnectionsQuery) HasProduct(p Product) bool {
	if q.Products == nil {
		return true
	}
	for _, product := range q.Products {
		if product == p {
			return true
		}
	}
	return false
}

// HasOption проверяет наличие опции
func (q ConnectionsQuery) HasOption(o TripOption) bool {
	for _, opt := range q.Options {
		if opt == o {
			return true
		}
	}
	return false
}
