package asr

import "fmt"

// UnknownStationError is returned when a station id is not in the lookup.
type UnknownStationError struct {
	StationID string
}

func (e *UnknownStationError) Error() string {
	return fmt.Sprintf("unknown station %q", e.StationID)
}

// PairingError reports rows that break positional FA/RA pairing.
type PairingError struct {
	Row    int
	Reason string
}

func (e *PairingError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("sample pairing at row %d: %s", e.Row, e.Reason)
	}
	return "sample pairing: " + e.Reason
}

// DateParseError is returned by ParseDateTime for unrecognized input.
type DateParseError struct {
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unrecognized date-time %q", e.Value)
}
