package asr

import (
	"strings"

	"github.com/lox/servoasr/internal/htmlutil"
	"github.com/lox/servoasr/internal/models"
)

var commentReplacer = strings.NewReplacer("{", "", "}", "", "'", "", `"`, "")

// CleanComments builds the NWQL comment line, e.g. "FA: ok, RA: turbid".
// A later comment for the same sample type replaces the earlier one.
func CleanComments(records []models.SampleRecord) string {
	var order []string
	byType := make(map[string]string)
	for _, r := range records {
		text := strings.TrimSpace(htmlutil.ToText(r.ASRComment))
		if text == "" {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(r.Type))
		if _, seen := byType[key]; !seen {
			order = append(order, key)
		}
		byType[key] = text
	}

	parts := make([]string, 0, len(order))
	for _, key := range order {
		parts = append(parts, key+": "+byType[key])
	}
	return commentReplacer.Replace(strings.Join(parts, ", "))
}
