// Package surface defines the contract between the collection core and the
// page it reads from. The core never touches markup: adapters such as the
// browser package turn the page into Entities and expose the few actions the
// core needs (open a panel, reveal more, close overlays).
package surface

import (
	"context"

	"engage/pkg/identity"
)

// Entity is one person-shaped element currently visible on the surface.
type Entity struct {
	// Href is the raw profile link as found in the markup.
	Href string
	// Context holds the markup of the link and its nearest ancestors,
	// nearest first.
	Context  []string
	Name     string
	Headline string
	Degree   string
}

// Trigger is one way of opening a panel, tried in order until one works.
type Trigger struct {
	Name string
	Fire func(ctx context.Context) error
}

// Panel is the view listing the people of one category.
type Panel interface {
	// Category returns the engagement role listed by the panel.
	Category() identity.Category
	// Available reports whether the surface offers this category at all.
	Available(ctx context.Context) bool
	// IsOpen reports whether the panel is currently displayed.
	IsOpen(ctx context.Context) bool
	// Triggers returns the ordered ways of opening the panel. A panel that
	// is always displayed returns none.
	Triggers(ctx context.Context) []Trigger
	// Visible returns the entities currently rendered in the panel.
	Visible(ctx context.Context) ([]Entity, error)
	// CanLoadMore reports whether a reveal action is currently offered.
	CanLoadMore(ctx context.Context) bool
	// LoadMore performs one reveal action.
	LoadMore(ctx context.Context) error
	// ExpectedTotal returns the total advertised by the surface, if any.
	ExpectedTotal(ctx context.Context) (int, bool)
	// ScrollSignal returns a value that stops changing once the panel has
	// nothing more to render, such as a scroll height.
	ScrollSignal(ctx context.Context) int64
}

// Page is the surface a run operates on.
type Page interface {
	// SourceReference identifies the inspected post; it is carried on
	// every exported row.
	SourceReference() string
	// SelfIdentity returns the raw profile link of the signed-in viewer.
	SelfIdentity(ctx context.Context) (string, bool)
	// Panel returns the panel for category c.
	Panel(c identity.Category) Panel
	// OpenOverlays counts overlays currently displayed.
	OpenOverlays(ctx context.Context) int
	// ClickDismissControls clicks the visible close controls of open
	// overlays and returns how many were clicked.
	ClickDismissControls(ctx context.Context) (int, error)
	// SendCancelKey delivers one cancel keystroke.
	SendCancelKey(ctx context.Context) error
	// DetachOverlays removes remaining overlays and returns how many.
	DetachOverlays(ctx context.Context) (int, error)
}
