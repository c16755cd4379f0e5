// Package extract turns the markup of a people list into surface entities.
//
// Extraction is driven by Rules, a small table of selectors naming where a
// person block, its profile link, name, headline and connection degree
// live. Site-specific tables belong to the adapters; this package only knows
// how to apply them and how to tidy the text they yield.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"engage/pkg/identity"
	"engage/pkg/surface"
)

// Rules names the selectors used to read people out of markup. Name,
// Headline and Degree are tried in order; the first with text wins.
type Rules struct {
	// Item selects one person's block. When empty every profile link is
	// its own entity and Scope bounds where its fields are read.
	Item string
	// Anchor selects profile links. Defaults to a[href*="/in/"].
	Anchor string
	// Scope selects the block around a link when Item is empty; the
	// link's parent is used when nothing matches.
	Scope    string
	Name     []string
	Headline []string
	Degree   []string
}

// Extractor applies compiled Rules.
type Extractor struct {
	item     Selector
	anchor   Selector
	scope    Selector
	name     []Selector
	headline []Selector
	degree   []Selector
}

// New compiles rules.
func New(rules Rules) (*Extractor, error) {
	if rules.Anchor == "" {
		rules.Anchor = `a[href*="/in/"]`
	}
	e := &Extractor{}
	var err error
	if e.item, err = ParseSelector(rules.Item); err != nil {
		return nil, err
	}
	if e.anchor, err = ParseSelector(rules.Anchor); err != nil {
		return nil, err
	}
	if e.scope, err = ParseSelector(rules.Scope); err != nil {
		return nil, err
	}
	if e.name, err = parseAll(rules.Name); err != nil {
		return nil, err
	}
	if e.headline, err = parseAll(rules.Headline); err != nil {
		return nil, err
	}
	if e.degree, err = parseAll(rules.Degree); err != nil {
		return nil, err
	}
	return e, nil
}

// MustNew is New that panics on invalid rules.
func MustNew(rules Rules) *Extractor {
	e, err := New(rules)
	if err != nil {
		panic(err)
	}
	return e
}

func parseAll(srcs []string) ([]Selector, error) {
	out := make([]Selector, 0, len(srcs))
	for _, src := range srcs {
		s, err := ParseSelector(src)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Extract parses markup and returns one entity per person found, in
// document order.
func (e *Extractor) Extract(markup string) ([]surface.Entity, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return e.ExtractNode(doc), nil
}

// ExtractNode extracts entities below root.
func (e *Extractor) ExtractNode(root *html.Node) []surface.Entity {
	doc := goquery.NewDocumentFromNode(root).Selection
	var out []surface.Entity
	if !e.item.Empty() {
		e.item.Find(doc).Each(func(_ int, item *goquery.Selection) {
			a := e.anchor.Find(item).First()
			if a.Length() == 0 {
				return
			}
			out = append(out, e.entity(a, item, item.Get(0)))
		})
		return out
	}

	e.anchor.Find(doc).Each(func(_ int, a *goquery.Selection) {
		scope := e.scope.Closest(a)
		boundary := node(scope)
		if boundary == nil {
			scope = a.Parent()
		}
		out = append(out, e.entity(a, scope, boundary))
	})
	return out
}

// entity reads one person. Fields come from scope; the context chain stops
// at boundary when it is set.
func (e *Extractor) entity(a, scope *goquery.Selection, boundary *html.Node) surface.Entity {
	ent := surface.Entity{
		Href:    a.AttrOr("href", ""),
		Context: contextChain(node(a), boundary),
	}

	ent.Name = firstText(scope, e.name)
	if ent.Name == "" {
		if t := Text(node(a)); strings.ContainsAny(t, " \t") && len(t) <= 80 {
			ent.Name = t
		}
	}
	ent.Name = CleanName(ent.Name)

	ent.Headline = StripName(firstText(scope, e.headline), ent.Name)

	for _, sel := range e.degree {
		if d := Degree(Text(node(sel.Find(scope).First()))); d != "" {
			ent.Degree = d
			break
		}
	}
	if ent.Degree == "" {
		ent.Degree = DegreeMarker(Text(node(scope)))
	}
	return ent
}

// node returns the first node of sel, or nil when sel is empty.
func node(sel *goquery.Selection) *html.Node {
	if sel.Length() == 0 {
		return nil
	}
	return sel.Get(0)
}

// contextChain renders the link and its nearest ancestors, stopping at
// boundary or the document body.
func contextChain(a, boundary *html.Node) []string {
	out := make([]string, 0, identity.MaxContextDepth)
	for n := a; n != nil && len(out) < identity.MaxContextDepth; n = n.Parent {
		if n.Type != html.ElementNode || n.Data == "body" || n.Data == "html" {
			break
		}
		var b strings.Builder
		if err := html.Render(&b, n); err == nil {
			out = append(out, b.String())
		}
		if n == boundary {
			break
		}
	}
	return out
}

func firstText(scope *goquery.Selection, sels []Selector) string {
	for _, sel := range sels {
		var found string
		sel.Find(scope).EachWithBreak(func(_ int, n *goquery.Selection) bool {
			found = Text(node(n))
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

var whitespace = regexp.MustCompile(`\s+`)

// Text returns the collapsed text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	collectText(n, &sb)
	return strings.TrimSpace(whitespace.ReplaceAllString(sb.String(), " "))
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch {
	case n.Type == html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
