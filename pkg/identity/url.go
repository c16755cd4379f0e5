package identity

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultOrigin resolves relative profile links.
const DefaultOrigin = "https://www.linkedin.com"

// opaqueProfilePath matches a whole /in/ segment holding a generated member
// id. Case matters: vanity slugs such as /in/acosta-maria are human-chosen.
var opaqueProfilePath = regexp.MustCompile(`/in/ACo[0-9A-Za-z_-]{10,}(?:[/?#]|$)`)

// NormalizeProfileURL turns a raw link into the canonical profile URL form:
// absolute, no query or fragment, path cut to /in/<slug>, no trailing slash.
// Links that are not http(s) profile links are rejected.
func NormalizeProfileURL(href, origin string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	if origin == "" {
		origin = DefaultOrigin
	}
	base, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if !strings.Contains(u.Path, "/in/") && !strings.Contains(u.Path, "/pub/") {
		return "", false
	}

	parts := splitPath(u.Path)
	for i, p := range parts {
		if p == "in" && i+1 < len(parts) {
			u.Path = "/in/" + parts[i+1]
			u.RawPath = ""
			break
		}
	}
	return strings.TrimRight(u.String(), "/"), true
}

// IsOpaqueURL reports whether the URL uses an auto-generated profile id
// rather than a human-chosen slug.
func IsOpaqueURL(u string) bool {
	return opaqueProfilePath.MatchString(u)
}

// BetterURL picks the preferred representative of two equivalent URLs. A
// human-chosen URL beats an opaque one; otherwise the shorter one wins and a
// tie keeps a.
func BetterURL(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	va, vb := !IsOpaqueURL(a), !IsOpaqueURL(b)
	if va != vb {
		if va {
			return a
		}
		return b
	}
	if len(b) < len(a) {
		return b
	}
	return a
}

// profileSlug returns the path segment after /in/, if any.
func profileSlug(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	parts := splitPath(parsed.Path)
	if len(parts) >= 2 && parts[0] == "in" {
		return parts[1]
	}
	return ""
}

func splitPath(p string) []string {
	raw := strings.Split(p, "/")
	parts := raw[:0]
	for _, s := range raw {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}
