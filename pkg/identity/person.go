package identity

import "strings"

// Category is an engagement role.
type Category uint8

const (
	Reactor Category = 1 << iota
	Commenter
	Reposter
)

// AllCategories lists the categories in collection order.
var AllCategories = []Category{Reactor, Commenter, Reposter}

// String returns the export name of the category.
func (c Category) String() string {
	switch c {
	case Reactor:
		return "reactor"
	case Commenter:
		return "commenter"
	case Reposter:
		return "reposter"
	default:
		return "unknown"
	}
}

// Plural returns the stats name of the category.
func (c Category) Plural() string {
	return c.String() + "s"
}

func (c Category) index() int {
	switch c {
	case Reactor:
		return 0
	case Commenter:
		return 1
	case Reposter:
		return 2
	default:
		return -1
	}
}

// ParseCategory converts an export name back into a Category.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reactor", "reactors", "reactions":
		return Reactor, true
	case "commenter", "commenters", "comments":
		return Commenter, true
	case "reposter", "reposters", "reposts":
		return Reposter, true
	default:
		return 0, false
	}
}

// Categories is a union-only set of categories.
type Categories uint8

// Has reports whether c is in the set.
func (s Categories) Has(c Category) bool {
	return s&Categories(c) != 0
}

// With returns the set plus c.
func (s Categories) With(c Category) Categories {
	return s | Categories(c)
}

// Union returns the union of both sets.
func (s Categories) Union(o Categories) Categories {
	return s | o
}

// Len returns the number of categories in the set.
func (s Categories) Len() int {
	n := 0
	for _, c := range AllCategories {
		if s.Has(c) {
			n++
		}
	}
	return n
}

// Slice returns the members in collection order.
func (s Categories) Slice() []Category {
	out := make([]Category, 0, 3)
	for _, c := range AllCategories {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the export names of the members in collection order.
func (s Categories) Names() []string {
	cats := s.Slice()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return names
}

// Label returns the export type label: the category name when there is one,
// a fixed pair label for two, and "all" for three.
func (s Categories) Label() string {
	switch {
	case s.Len() == 3:
		return "all"
	case s == Categories(Reactor|Commenter):
		return "reactor+commenter"
	case s == Categories(Reactor|Reposter):
		return "reactor+reposter"
	case s == Categories(Commenter|Reposter):
		return "commenter+reposter"
	case s.Len() == 1:
		return s.Slice()[0].String()
	default:
		return ""
	}
}

// Person is one distinct person seen during a run.
type Person struct {
	Key        string
	URL        string
	Categories Categories
	Name       string
	Headline   string
	Degree     string
}

// richness counts the non-empty descriptive fields used to pick a merge keeper.
func (p *Person) richness() int {
	n := 0
	if p.Name != "" {
		n++
	}
	if p.Headline != "" {
		n++
	}
	return n
}

// backfill copies fields that are still empty on p.
func (p *Person) backfill(name, headline, degree string) {
	if p.Name == "" && name != "" {
		p.Name = name
	}
	if p.Headline == "" && headline != "" {
		p.Headline = headline
	}
	if p.Degree == "" && degree != "" {
		p.Degree = degree
	}
}
