package models

import (
	"strings"
	"unicode"
)

// Slugify converts free text into a metadata key ("Quick Meals" -> "quick-meals").
// Spaces and underscores become dashes; other non-ASCII-alphanumerics are dropped.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r == ' ' || r == '_' || r == '-':
			b.WriteRune('-')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		}
	}
	return b.String()
}
