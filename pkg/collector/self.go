package collector

import (
	"context"

	"engage/pkg/identity"
	"engage/pkg/surface"
)

// SelfProbe recognizes the signed-in viewer so they are never recorded as
// engaging with their own post. The identity is probed lazily and cached
// once found; a failed probe is retried on the next harvest.
type SelfProbe struct {
	page   surface.Page
	origin string
	url    string
	key    string
	found  bool
	probes int
}

// NewSelfProbe returns a probe over page.
func NewSelfProbe(page surface.Page, origin string) *SelfProbe {
	return &SelfProbe{page: page, origin: origin}
}

// Resolve probes the page unless the identity is already known.
func (p *SelfProbe) Resolve(ctx context.Context) bool {
	if p.found || p.page == nil {
		return p.found
	}
	p.probes++
	href, ok := p.page.SelfIdentity(ctx)
	if !ok {
		return false
	}
	url, ok := identity.NormalizeProfileURL(href, p.origin)
	if !ok {
		return false
	}
	p.url = url
	p.key = identity.CanonicalKey(nil, url)
	p.found = true
	return true
}

// Matches reports whether a sighting with the given normalized URL and key
// is the viewer.
func (p *SelfProbe) Matches(url, key string) bool {
	if !p.found {
		return false
	}
	return url == p.url || key == p.key
}

// URL returns the viewer's normalized profile URL once resolved.
func (p *SelfProbe) URL() (string, bool) {
	return p.url, p.found
}

// Probes returns how many times the page was asked for the identity.
func (p *SelfProbe) Probes() int {
	return p.probes
}
