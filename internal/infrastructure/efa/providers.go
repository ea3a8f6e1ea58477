package efa

import (
	"sort"
	"strings"

	apperrors "github.com/efa-transit/internal/pkg/errors"
)

// ProviderID - идентификатор транспортного оператора
type ProviderID string

const (
	ProviderVRR    ProviderID = "vrr"
	ProviderMVV    ProviderID = "mvv"
	ProviderVVS    ProviderID = "vvs"
	ProviderKVV    ProviderID = "kvv"
	ProviderVVM    ProviderID = "vvm"
	ProviderAVV    ProviderID = "avv"
	ProviderBSVAG  ProviderID = "bsvag"
	ProviderBSAG   ProviderID = "bsag"
	ProviderGVH    ProviderID = "gvh"
	ProviderVMV    ProviderID = "vmv"
	ProviderNVBW   ProviderID = "nvbw"
	ProviderVOR    ProviderID = "vor"
	ProviderLinz   ProviderID = "linz"
	ProviderSVV    ProviderID = "svv"
	ProviderSTV    ProviderID = "stv"
	ProviderIVB    ProviderID = "ivb"
	ProviderVVO    ProviderID = "vvo"
	ProviderVGN    ProviderID = "vgn"
	ProviderDING   ProviderID = "ding"
	ProviderTLEM   ProviderID = "tlem"
	ProviderSF     ProviderID = "sf"
	ProviderVBL    ProviderID = "vbl"
	ProviderSydney ProviderID = "sydney"
)

// ProviderFactory создает конфигурацию провайдера
type ProviderFactory func() ProviderConfig

// registry - статический реестр провайдеров
var registry = map[ProviderID]ProviderFactory{
	ProviderVRR: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderVRR, "Verkehrsverbund Rhein-Ruhr", "http://app.vrr.de/standard/")
		c.CanAcceptPoiID = true
		c.NeedsSpEncID = true
		return c
	},
	ProviderMVV: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderMVV, "Münchner Verkehrs- und Tarifverbund", "http://efa.mvv-muenchen.de/mobile/")
		c.IncludeRegionID = false
		return c
	},
	ProviderVVS: func() ProviderConfig {
		return DefaultProviderConfig(ProviderVVS, "Verkehrs- und Tarifverbund Stuttgart", "http://www2.vvs.de/vvs/")
	},
	ProviderKVV: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderKVV, "Karlsruher Verkehrsverbund", "http://www.kvv.de/tunnelEfaDirect.php?action=")
		c.XMLStopFinder = true
		return c
	},
	ProviderVVM: func() ProviderConfig {
		return DefaultProviderConfig(ProviderVVM, "Verkehrsverbund Mittelsachsen", "http://efa.mobilitaetsverbund.de/web/")
	},
	ProviderAVV: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderAVV, "Augsburger Verkehrsverbund", "http://efa.avv-augsburg.de/avv/")
		c.HTTPPost = true
		return c
	},
	ProviderBSVAG: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderBSVAG, "Braunschweiger Verkehrs-GmbH", "http://mobil.efa.de/mobile3/")
		c.UseRouteIndexAsID = false
		return c
	},
	ProviderBSAG: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderBSAG, "Bremer Straßenbahn AG", "http://62.206.133.180/bsag/")
		c.UseRouteIndexAsID = false
		c.UseLineRestriction = false
		return c
	},
	ProviderGVH: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderGVH, "Großraum-Verkehr Hannover", "http://mobil.efa.de/mobile3/")
		c.AdditionalQueryParameter = "lsShowTrainsExplicit=1"
		return c
	},
	ProviderVMV: func() ProviderConfig {
		return DefaultProviderConfig(ProviderVMV, "Verkehrsgesellschaft Mecklenburg-Vorpommern", "http://80.146.180.107/vmv/")
	},
	ProviderNVBW: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderNVBW, "Nahverkehrsgesellschaft Baden-Württemberg", "http://www.efa-bw.de/nvbw/")
		c.UseRouteIndexAsID = false
		return c
	},
	ProviderVOR: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderVOR, "Verkehrsverbund Ost-Region", "http://efa.vor.at/wvb/")
		c.TimeZone = "Europe/Vienna"
		return c
	},
	ProviderLinz: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderLinz, "Linz AG Linien", "http://www.linzag.at/static/")
		c.TimeZone = "Europe/Vienna"
		return c
	},
	ProviderSVV: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderSVV, "Salzburger Verkehrsverbund", "http://efa.svv-info.at/sbs/")
		c.TimeZone = "Europe/Vienna"
		return c
	},
	ProviderSTV: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderSTV, "Steirischer Verkehrsverbund", "http://fahrplan.verbundlinie.at/stv/")
		c.TimeZone = "Europe/Vienna"
		c.HTTPReferer = "http://fahrplan.verbundlinie.at/"
		return c
	},
	ProviderIVB: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderIVB, "Innsbrucker Verkehrsbetriebe", "http://efa.ivb.at/ivb/")
		c.TimeZone = "Europe/Vienna"
		return c
	},
	ProviderVVO: func() ProviderConfig {
		return DefaultProviderConfig(ProviderVVO, "Verkehrsverbund Oberelbe", "http://efa.vvo-online.de:8080/dvb/")
	},
	ProviderVGN: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderVGN, "Verkehrsverbund Großraum Nürnberg", "http://efa.vgn.de/vgnExt_oeffi/")
		c.DepartureMonitorEndpoint = "XML_DM_REQUEST"
		c.TripEndpoint = "XML_TRIP_REQUEST2"
		return c
	},
	ProviderDING: func() ProviderConfig {
		return DefaultProviderConfig(ProviderDING, "Donau-Iller-Nahverkehrsverbund", "http://www.ding-ulm.de/ding2/")
	},
	ProviderTLEM: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderTLEM, "Traveline East Midlands", "http://www.travelineeastmidlands.co.uk/em/")
		c.TimeZone = "Europe/London"
		c.Language = "en"
		c.SuppressPositions = true
		return c
	},
	ProviderSF: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderSF, "San Francisco Bay Area", "http://tripplanner.transit.511.org/mtc/")
		c.TimeZone = "America/Los_Angeles"
		c.Language = "en"
		c.UseLineRestriction = false
		return c
	},
	ProviderVBL: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderVBL, "Verkehrsbetriebe Luzern", "http://mobil.vbl.ch/vblmobil/")
		c.TimeZone = "Europe/Zurich"
		return c
	},
	ProviderSydney: func() ProviderConfig {
		c := DefaultProviderConfig(ProviderSydney, "Transport for NSW", "http://mobile.131500.com.au/TripPlanner/mobile/")
		c.TimeZone = "Australia/Sydney"
		c.Language = "en"
		c.RequestURLEncoding = "UTF-8"
		return c
	},
}

// Lookup возвращает конфигурацию провайдера по идентификатору
func Lookup(id ProviderID) (ProviderConfig, error) {
	factory, ok := registry[ProviderID(strings.ToLower(string(id)))]
	if !ok {
		return ProviderConfig{}, apperrors.ErrUnknownProvider.WithDetails(map[string]interface{}{
			"provider": string(id),
		})
	}
	return factory(), nil
}

// ProviderIDs - отсортированный список всех провайдеров
func ProviderIDs() []ProviderID {
	ids := make([]ProviderID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
