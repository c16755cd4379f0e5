package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Selector is a compiled CSS selector group. The zero value selects nothing.
type Selector struct {
	source string
	m      cascadia.Selector
}

// ParseSelector compiles src. A blank source yields the empty Selector.
func ParseSelector(src string) (Selector, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Selector{}, nil
	}
	m, err := cascadia.Compile(src)
	if err != nil {
		return Selector{}, fmt.Errorf("selector %q: %w", src, err)
	}
	return Selector{source: src, m: m}, nil
}

// MustSelector is ParseSelector that panics on a bad source.
func MustSelector(src string) Selector {
	s, err := ParseSelector(src)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Selector) String() string { return s.source }

// Empty reports whether s selects nothing.
func (s Selector) Empty() bool { return s.m == nil }

// Find returns the descendants of sel that match, in document order.
func (s Selector) Find(sel *goquery.Selection) *goquery.Selection {
	if s.Empty() {
		return sel.FindNodes()
	}
	return sel.FindMatcher(s.m)
}

// Closest returns, for each node of sel, the nearest ancestor matching s,
// the node itself included.
func (s Selector) Closest(sel *goquery.Selection) *goquery.Selection {
	if s.Empty() {
		return sel.FindNodes()
	}
	return sel.ClosestMatcher(s.m)
}
