package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fingerprint normalizes a display name for approximate duplicate
// detection: diacritics stripped, case folded, whitespace collapsed.
// Different people can share a fingerprint.
func Fingerprint(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return strings.ToLower(strings.Join(strings.Fields(stripped), " "))
}
