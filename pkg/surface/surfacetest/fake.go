// Package surfacetest provides scripted surface.Page and surface.Panel
// implementations for tests.
package surfacetest

import (
	"context"
	"errors"
	"fmt"

	"engage/pkg/identity"
	"engage/pkg/surface"
)

// Person builds an entity with a vanity profile link.
func Person(slug, name string) surface.Entity {
	return surface.Entity{
		Href:    "https://www.linkedin.com/in/" + slug + "/",
		Context: []string{fmt.Sprintf(`<a href="/in/%s/">%s</a>`, slug, name)},
		Name:    name,
	}
}

// People builds n distinct entities named after prefix.
func People(prefix string, n int) []surface.Entity {
	out := make([]surface.Entity, n)
	for i := range out {
		out[i] = Person(fmt.Sprintf("%s-%03d", prefix, i), fmt.Sprintf("%s Person %03d", prefix, i))
	}
	return out
}

// Panel is a scripted panel over a fixed population. Entities are revealed
// Step at a time by LoadMore; only the last Window revealed entities are
// visible when Window is set.
type Panel struct {
	Cat        identity.Category
	Population []surface.Entity
	Initial    int
	Step       int
	Window     int

	// Total is advertised by ExpectedTotal when Known is set.
	Total int
	Known bool

	// Offered reports whether the category exists on the page.
	Offered bool
	// AlwaysOpen panels have no triggers and are never closed.
	AlwaysOpen bool
	// TriggerNames lists the triggers exposed; FailingTriggers fail on Fire.
	TriggerNames    []string
	FailingTriggers map[string]bool
	// OpenAfter is how many IsOpen checks after a successful trigger it
	// takes for the panel to appear; negative never opens.
	OpenAfter int

	// VisibleErr is returned by Visible when set.
	VisibleErr error

	revealed   int
	open       bool
	fired      bool
	checks     int
	Fired      []string
	LoadMores  int
	VisibleHit int
}

// NewPanel returns an always-open panel revealing step entities per load.
func NewPanel(c identity.Category, population []surface.Entity, initial, step int) *Panel {
	return &Panel{
		Cat:        c,
		Population: population,
		Initial:    initial,
		Step:       step,
		Offered:    true,
		AlwaysOpen: true,
		revealed:   min(initial, len(population)),
	}
}

// WithTriggers makes the panel closed until one of names is fired.
func (p *Panel) WithTriggers(openAfter int, names ...string) *Panel {
	p.AlwaysOpen = false
	p.TriggerNames = names
	p.OpenAfter = openAfter
	return p
}

func (p *Panel) Category() identity.Category { return p.Cat }

func (p *Panel) Available(context.Context) bool { return p.Offered }

func (p *Panel) IsOpen(context.Context) bool {
	if p.AlwaysOpen || p.open {
		return true
	}
	if !p.fired || p.OpenAfter < 0 {
		return false
	}
	p.checks++
	if p.checks > p.OpenAfter {
		p.open = true
	}
	return p.open
}

func (p *Panel) Triggers(context.Context) []surface.Trigger {
	if p.AlwaysOpen {
		return nil
	}
	out := make([]surface.Trigger, 0, len(p.TriggerNames))
	for _, name := range p.TriggerNames {
		name := name
		out = append(out, surface.Trigger{
			Name: name,
			Fire: func(context.Context) error {
				p.Fired = append(p.Fired, name)
				if p.FailingTriggers[name] {
					return errors.New("trigger not clickable")
				}
				p.fired = true
				p.checks = 0
				return nil
			},
		})
	}
	return out
}

// Close hides the panel again.
func (p *Panel) Close() {
	p.open = false
	p.fired = false
}

func (p *Panel) Visible(context.Context) ([]surface.Entity, error) {
	p.VisibleHit++
	if p.VisibleErr != nil {
		return nil, p.VisibleErr
	}
	start := 0
	if p.Window > 0 && p.revealed > p.Window {
		start = p.revealed - p.Window
	}
	out := make([]surface.Entity, p.revealed-start)
	copy(out, p.Population[start:p.revealed])
	return out, nil
}

func (p *Panel) CanLoadMore(context.Context) bool {
	return p.revealed < len(p.Population)
}

func (p *Panel) LoadMore(context.Context) error {
	p.LoadMores++
	p.revealed = min(p.revealed+p.Step, len(p.Population))
	return nil
}

func (p *Panel) ExpectedTotal(context.Context) (int, bool) {
	return p.Total, p.Known
}

func (p *Panel) ScrollSignal(context.Context) int64 {
	return int64(p.revealed) * 72
}

// Revealed returns how many entities have been revealed so far.
func (p *Panel) Revealed() int { return p.revealed }

// Page is a scripted page holding one panel per category.
type Page struct {
	Source string
	Self   string
	Panels map[identity.Category]*Panel

	// Overlays is the number of open overlays. DismissClears and
	// CancelClears control how many each primitive removes.
	Overlays      int
	DismissClears int
	CancelClears  int

	DismissCalls int
	CancelCalls  int
	DetachCalls  int
	SelfCalls    int
}

// NewPage returns a page over the given panels.
func NewPage(source, self string, panels ...*Panel) *Page {
	pg := &Page{
		Source: source,
		Self:   self,
		Panels: make(map[identity.Category]*Panel),
	}
	for _, p := range panels {
		pg.Panels[p.Cat] = p
	}
	return pg
}

func (pg *Page) SourceReference() string { return pg.Source }

func (pg *Page) SelfIdentity(context.Context) (string, bool) {
	pg.SelfCalls++
	return pg.Self, pg.Self != ""
}

func (pg *Page) Panel(c identity.Category) surface.Panel {
	if p, ok := pg.Panels[c]; ok {
		return p
	}
	return &Panel{Cat: c}
}

func (pg *Page) OpenOverlays(context.Context) int { return pg.Overlays }

func (pg *Page) ClickDismissControls(context.Context) (int, error) {
	pg.DismissCalls++
	n := min(pg.DismissClears, pg.Overlays)
	pg.Overlays -= n
	if n > 0 {
		pg.closePanels()
	}
	return n, nil
}

func (pg *Page) SendCancelKey(context.Context) error {
	pg.CancelCalls++
	n := min(pg.CancelClears, pg.Overlays)
	pg.Overlays -= n
	if n > 0 {
		pg.closePanels()
	}
	return nil
}

func (pg *Page) DetachOverlays(context.Context) (int, error) {
	pg.DetachCalls++
	n := pg.Overlays
	pg.Overlays = 0
	pg.closePanels()
	return n, nil
}

func (pg *Page) closePanels() {
	for _, p := range pg.Panels {
		if !p.AlwaysOpen {
			p.Close()
		}
	}
}

var (
	_ surface.Page  = (*Page)(nil)
	_ surface.Panel = (*Panel)(nil)
)
