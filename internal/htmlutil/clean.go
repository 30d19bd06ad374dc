package htmlutil

import (
	"regexp"
	"strings"

	"github.com/k3a/html2text"
)

var markup = regexp.MustCompile(`<[a-zA-Z/][^>]*>|&[a-zA-Z]+;|&#[0-9]+;`)

// ToText converts HTML to plain text. Comments pasted from web mail carry
// tags and entities; plain text such as "turbid <5 NTU" is returned as-is.
func ToText(s string) string {
	if !markup.MatchString(s) {
		return s
	}
	return strings.TrimSpace(html2text.HTML2Text(s))
}
