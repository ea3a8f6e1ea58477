// Package lines нормализует коды линий EFA в канонический словарь
// {I,R,S,U,T,B,C,F,P,?} + имя линии.
package lines

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/efa-transit/internal/domain"
	apperrors "github.com/efa-transit/internal/pkg/errors"
)

// Input - поля линии в том виде, в каком их отдает сервер
type Input struct {
	Mot       string // motType, пусто если не задан
	Symbol    string
	Name      string
	LongName  string
	TrainType string
	TrainNum  string
	TrainName string
}

func (in Input) classificationError() error {
	return &apperrors.ClassificationError{Fields: map[string]string{
		"mot":       in.Mot,
		"symbol":    in.Symbol,
		"name":      in.Name,
		"longName":  in.LongName,
		"trainType": in.TrainType,
		"trainNum":  in.TrainNum,
		"trainName": in.TrainName,
	}}
}

// fields - разобранный вход для правил поезда (mot=0)
type fields struct {
	Input
	typ string // первое слово LongName
	str string // typ + номер
}

type matcher func(f *fields) bool

type labeler func(f *fields) string

type rule struct {
	product domain.Product
	match   matcher
	label   labeler
}

func setOf(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func typeIs(values ...string) matcher {
	set := setOf(values)
	return func(f *fields) bool {
		_, ok := set[f.typ]
		return ok
	}
}

func typeMatches(expr string) matcher {
	re := regexp.MustCompile(`^(?:` + expr + `)$`)
	return func(f *fields) bool { return re.MatchString(f.typ) }
}

func nameIs(values ...string) matcher {
	set := setOf(values)
	return func(f *fields) bool {
		_, ok := set[f.Name]
		return ok
	}
}

func nameMatches(expr string) matcher {
	re := regexp.MustCompile(`^(?:` + expr + `)$`)
	return func(f *fields) bool { return re.MatchString(f.Name) }
}

func trainNameIs(values ...string) matcher {
	set := setOf(values)
	return func(f *fields) bool {
		_, ok := set[f.TrainName]
		return ok
	}
}

func longNameIs(value string) matcher {
	return func(f *fields) bool { return f.LongName == value }
}

func anyOf(matchers ...matcher) matcher {
	return func(f *fields) bool {
		for _, m := range matchers {
			if m(f) {
				return true
			}
		}
		return false
	}
}

func byStr(f *fields) string          { return f.str }
func byName(f *fields) string         { return f.Name }
func byType(f *fields) string         { return f.typ }
func byNothing(*fields) string        { return "" }
func bySymbolOrName(f *fields) string { return firstNotEmpty(f.Symbol, f.Name) }

var suburbanPattern = regexp.MustCompile(`^%?(S\d+)`)

func bySuburbanName(f *fields) string {
	return suburbanPattern.FindStringSubmatch(f.Name)[1]
}

func firstNotEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// trainRules - правила для mot=0. Порядок значим: побеждает первое совпадение.
var trainRules = []rule{
	{'I', typeIs("EC", "EN", "IC", "InterCity", "ICE", "X", "CNL", "THA", "TGV", "RJ"), byStr},
	{'R', typeIs("WB"), byStr},
	{'I', typeIs("OEC", "OIC", "HT", "MT", "HKX", "DNZ"), byStr},
	{'I', typeIs("INT", "IXB", "SC", "ECB", "ES"), byName},
	{'I', trainNameIs("Eurocity", "EuroNight", "railjet", "ÖBB InterCity"), byName},

	{'R', typeIs("IR", "InterRegio", "IRE"), byStr},
	{'R', typeMatches(`IRE\d+`), byStr},
	{'R', typeIs("RE", "R-Bahn", "RB-Bahn", "REX", "EZ"), byStr},
	{'R', typeMatches(`RE\d+`), byStr},
	{'R', typeIs("RB"), byStr},
	{'R', typeMatches(`RB\d+`), byStr},
	{'R', typeIs("R"), byStr},
	{'R', typeMatches(`R\d+(/R\d+|\(z\))?`), byStr},
	{'R', typeIs("Bahn", "Regionalbahn", "D", "E", "S", "WFB"), byStr},
	{'R', typeIs("Westfalenbahn"), byName},
	{'R', typeIs("NWB", "NordWestBahn", "ME", "ERB", "CAN", "HEX", "EB", "EBx", "MRB", "ABR", "NEB", "OE"), byStr},
	{'R', typeMatches(`OE\d+`), byStr},
	{'R', typeIs("MR", "OLA", "UBB", "EVB", "PEG", "RTB", "STB", "HTB", "VBG", "VB"), byStr},
	{'R', typeMatches(`VB\d+`), byStr},
	{'R', typeIs(
		"VX", "CB", "VEC", "HzL", "OSB", "SBB", "MBB", "OS", "SP", "Dab", "FEG", "ARR", "HSB", "SBE",
		"ALX", "EX", "MEr", "AKN", "ZUG", "SOE", "VIA", "BRB", "BLB", "HLB", "NOB", "WEG", "NBE", "VEN",
		"DPN", "SHB", "RBG", "BOB", "SWE", "VE", "SDG", "PRE", "VEB", "neg", "AVG", "ABG", "LGB", "LEO",
		"WTB", "P", "ÖBA", "MBS", "EGP", "SBS", "SES", "SB", "agi", "ag", "as", "agilis",
		"agilis-Schnellzug", "TLX", "DBG", "MSB", "BE", "MEL", "Abellio-Zug", "erx", "SWEG-Zug", "KBS",
		"Zug", "ÖBB", "CAT", "DZ", "CD", "PR", "KD", "VIAMO",
		// Великобритания
		"SE", "SW", "SN", "NT", "CH", "EA", "FC", "GW", "XC", "HC", "HX", "GX", "C2C", "LM", "EM", "VT",
		"SR", "AW", "WS", "TP", "GC", "IL", "FCC", "LE", "BR", "OO", "XX", "XZ",
	), byStr},
	{'R', typeIs("DB-Zug", "DB", "Regionalexpress"), byName},
	{'R', nameIs("CAPITOL"), byName},
	{'R', anyOf(trainNameIs("Train"), typeIs("Train")), byName},
	{'R', longNameIs("Regional Train :"), byNothing},
	{'R', trainNameIs("Regional Train"), byName},
	{'R', typeIs("Regional", "ATB", "Chiemsee-Bahn"), byName},
	{'R', trainNameIs("Regionalzug", "RegionalExpress"), byName},
	// бренды операторов из баварской сети
	{'R', typeIs(
		"Ostdeutsche", "Südwestdeutsche", "Mitteldeutsche", "Norddeutsche", "Hellertalbahn", "Veolia",
		"vectus", "Hessische", "Niederbarnimer", "Rurtalbahn", "Rhenus", "Mittelrheinbahn",
		"Hohenzollerische", "Städtebahn", "Ortenau-S-Bahn", "Daadetalbahn", "Mainschleifenbahn",
		"Nordbahn", "Harzer", "cantus", "DPF", "Freiberger", "metronom", "Prignitzer",
		"Sächsisch-Oberlausitzer", "Ostseeland", "NordOstseeBahn", "ELBE-WESER", "TRILEX",
		"Schleswig-Holstein-Bahn", "Vetter", "Dessau-Wörlitzer", "NATURPARK-EXPRESS", "Usedomer",
		"Märkische", "Vulkan-Eifel-Bahn", "Kandertalbahn", "RAD-WANDER-SHUTTLE", "RADEXPRESS",
		"Dampfzug", "Wutachtalbahn", "Grensland-Express", "Mecklenburgische", "Bentheimer",
		"Pressnitztalbahn", "Regental", "Döllnitzbahn", "Schneeberg", "FLZ", "FTB", "DWE", "KTB", "UEF",
		"CBC", "Regionalzug", "RR",
	), byType},
	{'R', typeIs("ZAB1/766", "ZAB2/768"), byName},

	{'S', typeIs("BSB", "BSB-Zug"), byStr},
	{'S', typeIs("Breisgau-S-Bahn", "RSB"), byType},
	{'S', typeIs("RER", "LO"), byStr},
	{'S', nameIs("A", "B", "C"), byStr},
	{'S', func(f *fields) bool { return suburbanPattern.MatchString(f.Name) }, bySuburbanName},

	{'U', typeMatches(`U\d+`), byStr},
	{'U', typeIs("Underground"), byStr},
	{'U', nameIs(
		"Millbrae / Richmond", "Richmond / Millbrae", "Fremont / RIchmond", "Richmond / Fremont",
		"Pittsburg Bay Point / SFO", "SFO / Pittsburg Bay Point", "Dublin Pleasanton / Daly City",
		"Daly City / Dublin Pleasanton", "Fremont / Daly City", "Daly City / Fremont",
	), byName},

	{'T', typeIs("RT", "STR"), byStr},
	{'T', nameIs("California Cable Car"), byName},
	{'T', typeIs("Muni", "Cable"), byName},
	{'T', trainNameIs("Muni Rail", "Cable Car"), byName},

	{'B', typeIs("BUS", "Bus"), byStr},
	{'B', typeMatches(`SEV.*`), byStr},
	{'B', typeIs("Bex", "Ersatzverkehr"), byStr},
	{'B', trainNameIs("Bus replacement"), byStr},

	{'F', typeIs("HBL"), byStr},

	{'P', typeIs("AST"), byStr},

	{'?', typeIs(""), byNothing},
	{'?', typeMatches(`\d+`), bySymbolOrName},
	{'?', nameMatches(`\d+Y`), bySymbolOrName},
	{'?', nameIs("Sonderverkehr Red Bull"), byName},
}

// brandRules - правила по названию вида транспорта, когда motType не задан
var brandRules = []struct {
	product domain.Product
	names   map[string]struct{}
}{
	{'S', setOf([]string{"S-Bahn"})},
	{'U', setOf([]string{"U-Bahn"})},
	{'T', setOf([]string{"Straßenbahn", "Badner Bahn"})},
	{'B', setOf([]string{
		"Stadtbus", "Citybus", "Regionalbus", "ÖBB-Postbus", "Autobus", "Discobus", "Nachtbus",
		"Anrufsammeltaxi", "Ersatzverkehr", "Vienna Airport Lines",
	})},
}

// Normalize возвращает класс транспорта и имя линии.
// Нераспознанный вход - ошибка ClassificationError со всеми полями.
func Normalize(in Input) (domain.Product, string, error) {
	if in.Mot == "" {
		if in.TrainName != "" {
			for _, r := range brandRules {
				if _, ok := r.names[in.TrainName]; ok {
					return r.product, in.Name, nil
				}
			}
		}
		return 0, "", in.classificationError()
	}

	mot, err := strconv.Atoi(strings.TrimSpace(in.Mot))
	if err != nil {
		return 0, "", in.classificationError()
	}

	switch mot {
	case 0:
		f := splitLongName(in)
		for _, r := range trainRules {
			if r.match(f) {
				return r.product, r.label(f), nil
			}
		}
		return 0, "", in.classificationError()
	case 1:
		if m := suburbanPattern.FindStringSubmatch(in.Name); m != nil {
			return domain.ProductSuburbanTrain, m[1], nil
		}
		return domain.ProductSuburbanTrain, in.Name, nil
	case 2:
		return domain.ProductSubway, in.Name, nil
	case 3, 4:
		return domain.ProductTram, in.Name, nil
	case 5, 6, 7, 10:
		if in.Name == "Schienenersatzverkehr" {
			return domain.ProductBus, "SEV", nil
		}
		return domain.ProductBus, in.Name, nil
	case 8:
		return domain.ProductCablecar, in.Name, nil
	case 9:
		return domain.ProductFerry, in.Name, nil
	case 11, -1:
		return domain.ProductUnknown, firstNotEmpty(in.Symbol, in.Name), nil
	}

	return 0, "", in.classificationError()
}

func splitLongName(in Input) *fields {
	parts := strings.SplitN(in.LongName, " ", 3)
	f := &fields{Input: in, typ: parts[0]}
	f.str = f.typ
	if len(parts) >= 2 {
		f.str += parts[1]
	}
	return f
}

// Label - каноническое название линии для входа
func Label(in Input) (string, error) {
	product, name, err := Normalize(in)
	if err != nil {
		return "", err
	}
	return domain.Line{Product: product, Name: name}.Label(), nil
}
