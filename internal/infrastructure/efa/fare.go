package efa

import (
	"strconv"
	"strings"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/infrastructure/efa/xmlpull"
	"golang.org/x/text/currency"
)

// parseCurrency переводит обозначение валюты сервера в код ISO 4217
func parseCurrency(raw string) (currency.Unit, error) {
	switch raw {
	case "US$":
		return currency.USD, nil
	case "Dirham":
		return currency.MustParseISO("AED"), nil
	}
	return currency.ParseISO(raw)
}

// parseItdFare разбирает itdFare: одиночный билет и его generic-тарифы
func parseItdFare(p *xmlpull.Parser) ([]domain.Fare, error) {
	if err := p.Enter("itdFare"); err != nil {
		return nil, err
	}

	var fares []domain.Fare
	if p.Test("itdSingleTicket") {
		net := p.OptAttr("net")
		cur, err := parseCurrency(p.OptAttr("currency"))
		if err != nil {
			return nil, p.Errorf("unknown currency %q", p.OptAttr("currency"))
		}
		unitName := p.OptAttr("unitName")

		single := []struct {
			typ   domain.FareType
			fare  string
			units string
			level string
		}{
			{domain.FareTypeAdult, p.OptAttr("fareAdult"), p.OptAttr("unitsAdult"), p.OptAttr("levelAdult")},
			{domain.FareTypeChild, p.OptAttr("fareChild"), p.OptAttr("unitsChild"), p.OptAttr("levelChild")},
		}
		for _, s := range single {
			if s.fare == "" {
				continue
			}
			amount, err := strconv.ParseFloat(s.fare, 64)
			if err != nil {
				return nil, p.Errorf("fare is not a number: %q", s.fare)
			}
			fare := domain.Fare{
				Network:  net,
				Type:     s.typ,
				Currency: cur.String(),
				Amount:   amount,
				UnitName: unitName,
				Units:    s.units,
			}
			// тарифная зона вместо единиц
			if s.level != "" {
				fare.UnitName = ""
				fare.Units = s.level
			}
			fares = append(fares, fare)
		}

		if err := p.Enter("itdSingleTicket"); err != nil {
			return nil, err
		}
		if p.Test("itdGenericTicketList") {
			if err := p.Enter("itdGenericTicketList"); err != nil {
				return nil, err
			}
			for p.Test("itdGenericTicketGroup") {
				fare, err := parseItdGenericTicketGroup(p, net, cur)
				if err != nil {
					return nil, err
				}
				if fare != nil {
					fares = append(fares, *fare)
				}
			}
			if err := p.Exit("itdGenericTicketList"); err != nil {
				return nil, err
			}
		}
		if err := p.Exit("itdSingleTicket"); err != nil {
			return nil, err
		}
	}

	if err := p.Exit("itdFare"); err != nil {
		return nil, err
	}
	return fares, nil
}

// parseItdGenericTicketGroup возвращает тариф группы, если в ней указана категория пассажира
func parseItdGenericTicketGroup(p *xmlpull.Parser, net string, cur currency.Unit) (*domain.Fare, error) {
	if err := p.Enter("itdGenericTicketGroup"); err != nil {
		return nil, err
	}

	var (
		fareType domain.FareType
		amount   float64
	)
	for p.Test("itdGenericTicket") {
		if err := p.Enter("itdGenericTicket"); err != nil {
			return nil, err
		}
		key, err := p.ValueTag("ticket")
		if err != nil {
			return nil, err
		}
		value, err := p.ValueTag("value")
		if err != nil {
			return nil, err
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "FOR_RIDER":
			word, _, _ := strings.Cut(value, " ")
			word = strings.ToUpper(word)
			if word == "REGULAR" {
				fareType = domain.FareTypeAdult
			} else if t, ok := domain.ParseFareType(word); ok {
				fareType = t
			} else {
				return nil, p.Errorf("unknown rider type %q", value)
			}
		case "PRICE":
			price, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, p.Errorf("price is not a number: %q", value)
			}
			// цены в центах
			if cur == currency.USD {
				price *= 0.01
			}
			amount = price
		}

		if err := p.Exit("itdGenericTicket"); err != nil {
			return nil, err
		}
	}

	if err := p.Exit("itdGenericTicketGroup"); err != nil {
		return nil, err
	}

	if fareType == "" {
		return nil, nil
	}
	return &domain.Fare{Network: net, Type: fareType, Currency: cur.String(), Amount: amount}, nil
}
