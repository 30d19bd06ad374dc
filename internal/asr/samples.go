package asr

import (
	"fmt"
	"strings"

	"github.com/lox/servoasr/internal/models"
)

// NormalizeSamples cleans the raw sample log: blank and header-echo rows are
// dropped, paired FA/RA rows share one date-time, and rows flagged invalid
// are removed. The input slice is not modified.
func NormalizeSamples(rows []models.SampleRecord) ([]models.SampleRecord, error) {
	samples := make([]models.SampleRecord, 0, len(rows))
	for _, r := range rows {
		if r.Empty() {
			continue
		}
		samples = append(samples, r)
	}

	if len(samples) > 0 && strings.TrimSpace(samples[0].SampleID) == "" {
		samples = samples[1:]
	}

	if err := pairDateTimes(samples); err != nil {
		return nil, err
	}

	valid := samples[:0]
	for _, r := range samples {
		if strings.EqualFold(strings.TrimSpace(r.Invalid), "x") {
			continue
		}
		valid = append(valid, r)
	}
	return valid, nil
}

// pairDateTimes fills a missing date-time from the other row of its
// positional pair (rows 0/1, 2/3, ...).
func pairDateTimes(samples []models.SampleRecord) error {
	for i := 0; i < len(samples); i += 2 {
		a := &samples[i]
		aMissing := strings.TrimSpace(a.DateTime) == ""
		if i+1 == len(samples) {
			if aMissing {
				return &PairingError{Row: a.Row, Reason: "unpaired sample has no date-time"}
			}
			break
		}

		b := &samples[i+1]
		bMissing := strings.TrimSpace(b.DateTime) == ""
		if !aMissing && !bMissing {
			continue
		}
		if aMissing && bMissing {
			return &PairingError{Row: a.Row, Reason: "neither sample in the pair has a date-time"}
		}

		ta := strings.ToLower(strings.TrimSpace(a.Type))
		tb := strings.ToLower(strings.TrimSpace(b.Type))
		if ta != "" && ta == tb {
			return &PairingError{Row: a.Row, Reason: fmt.Sprintf("pair has two %s samples", strings.ToUpper(ta))}
		}

		if aMissing {
			a.DateTime = b.DateTime
		} else {
			b.DateTime = a.DateTime
		}
	}
	return nil
}

// GroupSamples buckets samples by normalized date-time in first-seen order.
func GroupSamples(samples []models.SampleRecord) []models.SampleGroup {
	var groups []models.SampleGroup
	index := make(map[string]int)
	for _, r := range samples {
		key := normalizeKey(r.DateTime)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.SampleGroup{Key: key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// countTypes returns the number of FA and RA rows, ignoring case.
func countTypes(records []models.SampleRecord) (fa, ra int) {
	for _, r := range records {
		switch strings.ToLower(strings.TrimSpace(r.Type)) {
		case "fa":
			fa++
		case "ra":
			ra++
		}
	}
	return fa, ra
}
