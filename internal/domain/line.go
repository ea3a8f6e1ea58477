package domain

import (
	"fmt"
	"strings"
)

// Product - класс транспорта, первый символ канонического названия линии
type Product byte

const (
	ProductHighSpeedTrain Product = 'I'
	ProductRegionalTrain  Product = 'R'
	ProductSuburbanTrain  Product = 'S'
	ProductSubway         Product = 'U'
	ProductTram           Product = 'T'
	ProductBus            Product = 'B'
	ProductCablecar       Product = 'C'
	ProductFerry          Product = 'F'
	ProductOnDemand       Product = 'P'
	ProductUnknown        Product = '?'
)

// AllProducts - все известные классы транспорта
var AllProducts = []Product{
	ProductHighSpeedTrain,
	ProductRegionalTrain,
	ProductSuburbanTrain,
	ProductSubway,
	ProductTram,
	ProductBus,
	ProductCablecar,
	ProductFerry,
	ProductOnDemand,
}

func (p Product) String() string {
	return string(rune(p))
}

// IsValid проверяет, что символ входит в {I,R,S,U,T,B,C,F,P,?}
func (p Product) IsValid() bool {
	return p == ProductUnknown || strings.IndexByte("IRSUTBCFP", byte(p)) >= 0
}

func (p Product) MarshalText() ([]byte, error) {
	return []byte{byte(p)}, nil
}

func (p *Product) UnmarshalText(text []byte) error {
	parsed, ok := ParseProduct(string(text))
	if !ok {
		return fmt.Errorf("unknown product %q", text)
	}
	*p = parsed
	return nil
}

// ParseProduct - обратное преобразование из символа
func ParseProduct(s string) (Product, bool) {
	if len(s) != 1 {
		return 0, false
	}
	p := Product(s[0])
	return p, p.IsValid()
}

// LineAttr - атрибут линии
type LineAttr string

const (
	LineAttrWheelChairAccess LineAttr = "WHEEL_CHAIR_ACCESS"
	LineAttrLowFloor         LineAttr = "LOW_FLOOR"
)

// Style - подсказка цвета для отображения линии
type Style struct {
	BackgroundColor string `json:"background_color"`
	ForegroundColor string `json:"foreground_color"`
}

// Line - линия транспорта. Неизменяема после создания.
type Line struct {
	ID         string     `json:"id,omitempty"`
	Product    Product    `json:"product"`
	Name       string     `json:"name"`
	Style      *Style     `json:"style,omitempty"`
	Attributes []LineAttr `json:"attributes,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// Label возвращает каноническое название линии: символ класса и имя.
// Символ не дублируется, если имя уже с него начинается (S1, ICE123).
func (l Line) Label() string {
	if l.Product == 0 {
		return l.Name
	}
	if l.Name != "" && l.Name[0] == byte(l.Product) {
		return l.Name
	}
	return l.Product.String() + l.Name
}

// HasAttr проверяет наличие атрибута
func (l Line) HasAttr(attr LineAttr) bool {
	for _, a := range l.Attributes {
		if a == attr {
			return true
		}
	}
	return false
}

// Equal - линии равны по id и каноническому названию
func (l Line) Equal(o Line) bool {
	return l.ID == o.ID && l.Label() == o.Label()
}

// LineDestination - линия и её направление в каталоге обслуживающих линий
type LineDestination struct {
	Line        Line      `json:"line"`
	Destination *Location `json:"destination,omitempty"`
}
