package asr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lox/servoasr/internal/models"
)

const (
	// RiverSiteID has no sampling depth; it never gets a depth prefix.
	RiverSiteID = "12301933"

	// RiverDepthSentinel stands in for a missing depth.
	RiverDepthSentinel = "-699999999999999999999999999999999999999999999"

	DefaultConductance = "250 E"
)

// Stations maps USGS station ids to the display names printed on the ASR.
var Stations = map[string]string{
	"12301933": "Kootenai River bl Libby Dam nr Libby MT",
	"12301919": "Lake Koocanusa at forebay, nr Libby, MT",
	"12300110": "Lake Koocanusa at international boundary",
	"12301830": "Lake Koocanusa at Tenmile Cr nr Libby, MT",
}

// NormalizeStation resolves the station name and applies the fallbacks for
// depth, ship date, conductance and the blank datetime.
func (f *Filler) NormalizeStation(b *Batch, info models.StationInfo) (models.Station, error) {
	id := canonicalStationID(info.StationID)
	name, ok := Stations[id]
	if !ok {
		return models.Station{}, &UnknownStationError{StationID: id}
	}

	st := models.Station{ID: id, Name: name}

	depth, ok := parseDepth(info.Depth)
	st.Depth = depth
	if !ok {
		if strings.TrimSpace(info.Depth) == "" {
			f.warn(b, "No depth found, assume river site.")
		} else {
			f.warn(b, fmt.Sprintf("Could not parse depth %q, assume river site.", info.Depth))
		}
	}

	if t, err := ParseDateTime(info.ShipDate); err == nil {
		st.ShipDate = t.Format(ShipLayout)
	} else {
		st.ShipDate = f.now().Format(ShipLayout)
	}

	if n, ok := truncatedInt(info.SpecificConductance); ok {
		st.Conductance = n
	} else {
		st.Conductance = DefaultConductance
	}

	if strings.TrimSpace(info.BlankDateTime) != "" {
		if t, err := ParseDateTime(info.BlankDateTime); err == nil {
			st.BlankAt = &t
		} else {
			f.warn(b, "Invalid blank datetime, skipping Blank ASR")
		}
	}

	return st, nil
}

func canonicalStationID(raw string) string {
	s := strings.TrimSpace(raw)
	if s != "" && strings.Trim(s, "0123456789") == "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
		return s
	}
	if n, ok := truncatedInt(s); ok {
		return n
	}
	return s
}

// parseDepth returns whole metres. Units or stray letters are stripped
// before giving up and returning the river sentinel.
func parseDepth(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return RiverDepthSentinel, false
	}
	if n, ok := truncatedInt(s); ok {
		return n, true
	}
	stripped := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if n, ok := truncatedInt(stripped); ok {
		return n, true
	}
	return RiverDepthSentinel, false
}

func truncatedInt(raw string) (string, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	return strconv.FormatInt(int64(v), 10), true
}

// DepthPrefixed prepends the depth for every site but the river site.
func DepthPrefixed(st models.Station, text string) string {
	if st.ID == RiverSiteID {
		return text
	}
	return fmt.Sprintf("%s m depth   %s", st.Depth, text)
}
