package lines

import "github.com/efa-transit/internal/domain"

var productStyles = map[domain.Product]domain.Style{
	domain.ProductHighSpeedTrain: {BackgroundColor: "#FFFFFF", ForegroundColor: "#EC0016"},
	domain.ProductRegionalTrain:  {BackgroundColor: "#808080", ForegroundColor: "#FFFFFF"},
	domain.ProductSuburbanTrain:  {BackgroundColor: "#006E34", ForegroundColor: "#FFFFFF"},
	domain.ProductSubway:         {BackgroundColor: "#003090", ForegroundColor: "#FFFFFF"},
	domain.ProductTram:           {BackgroundColor: "#CC0000", ForegroundColor: "#FFFFFF"},
	domain.ProductBus:            {BackgroundColor: "#993399", ForegroundColor: "#FFFFFF"},
	domain.ProductCablecar:       {BackgroundColor: "#333333", ForegroundColor: "#FFFFFF"},
	domain.ProductFerry:          {BackgroundColor: "#0000FF", ForegroundColor: "#FFFFFF"},
	domain.ProductOnDemand:       {BackgroundColor: "#FFC000", ForegroundColor: "#000000"},
}

// StyleFor - цвет по умолчанию для класса транспорта
func StyleFor(product domain.Product) *domain.Style {
	style, ok := productStyles[product]
	if !ok {
		return nil
	}
	return &style
}
