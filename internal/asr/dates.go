package asr

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	// KeyLayout is the normalized group key format.
	KeyLayout    = "2006-01-02 15:04:05"
	WindowLayout = "20060102 1504"
	ShipLayout   = "01/02/2006"
	FileLayout   = "20060102_1504"
)

var dateLayouts = []string{
	KeyLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/06 15:04",
	"1/2/06 3:04 PM",
	"1-2-2006 15:04",
	WindowLayout,
	"2006-01-02",
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
}

// ParseDateTime accepts Excel serial numbers and the layouts people type
// into the sample log. Times carry no zone and are returned in UTC.
func ParseDateTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &DateParseError{Value: raw}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
			return time.Time{}, &DateParseError{Value: raw}
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, &DateParseError{Value: raw}
		}
		return t.Round(time.Second), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &DateParseError{Value: raw}
}

// normalizeKey returns the grouping key for a raw date-time cell.
func normalizeKey(raw string) string {
	if t, err := ParseDateTime(raw); err == nil {
		return t.Format(KeyLayout)
	}
	return strings.TrimSpace(raw)
}
