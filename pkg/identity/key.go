package identity

import (
	"regexp"
	"strings"
)

// MaxContextDepth bounds how many context strings (the link itself plus its
// nearest ancestors) are searched for an embedded profile identifier.
const MaxContextDepth = 4

var (
	profileURN = regexp.MustCompile(`(?i)urn:li:(?:fsd_)?profile(?::|%3A)(ACo[0-9A-Za-z_-]+)`)
	bareID     = regexp.MustCompile(`ACo[0-9A-Za-z_-]{10,}`)
)

// CanonicalKey derives the deduplication key for a sighting. contexts holds
// markup or attribute text around the link, nearest first; only the first
// MaxContextDepth entries are searched. Without an embedded identifier the
// lower-cased profile slug of normalizedURL is used.
func CanonicalKey(contexts []string, normalizedURL string) string {
	if len(contexts) > MaxContextDepth {
		contexts = contexts[:MaxContextDepth]
	}
	for _, c := range contexts {
		if id := sniffProfileID(c); id != "" {
			return id
		}
	}
	if slug := profileSlug(normalizedURL); slug != "" {
		return strings.ToLower(slug)
	}
	return strings.ToLower(normalizedURL)
}

func sniffProfileID(s string) string {
	if s == "" {
		return ""
	}
	if m := profileURN.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return bareID.FindString(s)
}
