// Package collector binds one engagement category to the reveal controller:
// it opens the category's panel, harvests what the panel shows into the
// shared identity store, and exposes the panel's reveal controls.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"engage/pkg/config"
	errs "engage/pkg/errors"
	"engage/pkg/identity"
	"engage/pkg/logger"
	"engage/pkg/ratelimit"
	"engage/pkg/reveal"
	"engage/pkg/retry"
	"engage/pkg/surface"
)

// Config tunes one collector.
type Config struct {
	// PanelAttempts and PanelInterval bound the wait after each trigger.
	PanelAttempts int
	PanelInterval time.Duration
	Reveal        reveal.Config
}

// FromConfig derives the collector tuning for category c.
func FromConfig(cfg *config.Config, c identity.Category) Config {
	var rc config.RevealConfig
	switch c {
	case identity.Reactor:
		rc = cfg.Collection.Reactions
	case identity.Commenter:
		rc = cfg.Collection.Comments
	case identity.Reposter:
		rc = cfg.Collection.Reposts
	}
	return Config{
		PanelAttempts: rc.PanelAttempts,
		PanelInterval: rc.PanelInterval.Std(),
		Reveal: reveal.Config{
			GlobalCap:          cfg.Collection.GlobalCap,
			MaxTicks:           rc.MaxTicks,
			StableThreshold:    rc.StableThreshold,
			UnchangedThreshold: rc.UnchangedThreshold,
			SmallTotal:         cfg.Collection.SmallTotal,
			SmallDelay: reveal.Delay{
				Base:   cfg.Collection.SmallDelay.Base.Std(),
				Spread: cfg.Collection.SmallDelay.Spread.Std(),
			},
			LargeDelay: reveal.Delay{
				Base:   cfg.Collection.LargeDelay.Base.Std(),
				Spread: cfg.Collection.LargeDelay.Spread.Std(),
			},
		},
	}
}

// StageName returns the log and report name of category c.
func StageName(c identity.Category) string {
	switch c {
	case identity.Reactor:
		return "reactions"
	case identity.Commenter:
		return "comments"
	case identity.Reposter:
		return "reposts"
	default:
		return c.String()
	}
}

// Report describes how a category's collection went.
type Report struct {
	Category identity.Category
	Skipped  bool
	Reason   string
	Result   reveal.Result
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

// WithSleeper replaces wall-clock waits, both for panel polling and ticks.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *Collector) { c.sleeper = s }
}

// WithLimiter paces load-more actions.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Collector) { c.limiter = l }
}

// WithOrigin sets the origin used to resolve relative profile links.
func WithOrigin(origin string) Option {
	return func(c *Collector) { c.origin = origin }
}

// WithControllerOptions passes extra options to the reveal controller.
func WithControllerOptions(opts ...reveal.Option) Option {
	return func(c *Collector) { c.revealOpts = append(c.revealOpts, opts...) }
}

// Collector collects one category. It implements reveal.Collaborator.
type Collector struct {
	cat        identity.Category
	panel      surface.Panel
	store      *identity.Store
	self       *SelfProbe
	cfg        Config
	origin     string
	sleeper    retry.Sleeper
	limiter    ratelimit.Limiter
	logger     logger.Logger
	revealOpts []reveal.Option

	capped bool
}

// New returns a collector for panel writing into store. self may be shared
// between the collectors of one run.
func New(panel surface.Panel, store *identity.Store, self *SelfProbe, cfg Config, opts ...Option) *Collector {
	c := &Collector{
		cat:     panel.Category(),
		panel:   panel,
		store:   store,
		self:    self,
		cfg:     cfg,
		origin:  identity.DefaultOrigin,
		sleeper: retry.RealSleeper,
		limiter: ratelimit.Unlimited{},
		logger:  logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithField("stage", StageName(c.cat))
	return c
}

// Category returns the collected category.
func (c *Collector) Category() identity.Category {
	return c.cat
}

// Collect opens the panel and drives it to completion. A category the page
// does not offer, or whose panel cannot be opened, is skipped.
func (c *Collector) Collect(ctx context.Context) Report {
	rep := Report{Category: c.cat}

	if !c.panel.Available(ctx) {
		rep.Skipped = true
		rep.Reason = "not offered on this page"
		c.logger.Info("Category not offered, skipping")
		return rep
	}

	if err := c.OpenPanel(ctx); err != nil {
		rep.Skipped = true
		rep.Reason = err.Error()
		c.logger.WithError(err).Warn("Panel did not open, skipping category")
		return rep
	}

	opts := append([]reveal.Option{
		reveal.WithSleeper(c.sleeper),
		reveal.WithLimiter(c.limiter),
		reveal.WithLogger(c.logger),
	}, c.revealOpts...)
	rep.Result = reveal.New(StageName(c.cat), c.cfg.Reveal, opts...).Run(ctx, c)
	rep.Reason = rep.Result.Reason
	return rep
}

// OpenPanel makes the panel visible, trying each trigger in order and
// waiting a bounded time after each. Panels without triggers are treated
// as always open.
func (c *Collector) OpenPanel(ctx context.Context) error {
	if c.panel.IsOpen(ctx) {
		return nil
	}
	triggers := c.panel.Triggers(ctx)
	if len(triggers) == 0 {
		return errs.New(errs.ErrorTypePanel, fmt.Sprintf("%s panel is closed and has no triggers", StageName(c.cat)))
	}

	for _, trig := range triggers {
		if err := trig.Fire(ctx); err != nil {
			c.logger.WithError(err).DebugWithFields("Trigger failed", map[string]interface{}{
				"trigger": trig.Name,
			})
			continue
		}
		opened, err := retry.Poll(ctx, c.sleeper, c.cfg.PanelAttempts, c.cfg.PanelInterval, c.panel.IsOpen)
		if err != nil {
			return fmt.Errorf("waiting for %s panel: %w", StageName(c.cat), err)
		}
		if opened {
			c.logger.DebugWithFields("Panel opened", map[string]interface{}{
				"trigger": trig.Name,
			})
			return nil
		}
	}
	return errs.New(errs.ErrorTypePanel, fmt.Sprintf("no trigger opened the %s panel", StageName(c.cat)))
}

// HarvestVisible records every visible entity and returns how many were new
// to the category. Entities without a profile link or a name are skipped,
// as is the viewer, and a link seen twice in one pass counts once.
func (c *Collector) HarvestVisible(ctx context.Context) (int, error) {
	if c.self != nil {
		c.self.Resolve(ctx)
	}

	entities, err := c.panel.Visible(ctx)
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeExtraction, "read visible entities", err)
	}

	seen := make(map[string]bool, len(entities))
	added, skipped := 0, 0
	for _, ent := range entities {
		url, ok := identity.NormalizeProfileURL(ent.Href, c.origin)
		if !ok || ent.Name == "" {
			skipped++
			continue
		}
		if seen[url] {
			continue
		}
		seen[url] = true

		key := identity.CanonicalKey(ent.Context, url)
		if c.self != nil && c.self.Matches(url, key) {
			continue
		}

		out, err := c.store.Upsert(identity.Sighting{
			Key:      key,
			URL:      url,
			Category: c.cat,
			Name:     ent.Name,
			Headline: ent.Headline,
			Degree:   ent.Degree,
		})
		if errors.Is(err, identity.ErrCapacity) {
			if !c.capped {
				c.logger.WarnWithFields("Store is full, ignoring new people", map[string]interface{}{
					"limit": c.store.Limit(),
				})
			}
			c.capped = true
			continue
		}
		if err != nil {
			skipped++
			continue
		}
		if out.Added {
			added++
		}
	}

	if skipped > 0 {
		c.logger.DebugWithFields("Skipped unusable entities", map[string]interface{}{
			"skipped": skipped,
		})
	}
	return added, nil
}

// ExpectedTotal returns the total advertised by the panel.
func (c *Collector) ExpectedTotal(ctx context.Context) (int, bool) {
	return c.panel.ExpectedTotal(ctx)
}

// Count returns the number of people recorded in the category.
func (c *Collector) Count() int {
	return c.store.Count(c.cat)
}

// Total returns the number of people recorded overall.
func (c *Collector) Total() int {
	return c.store.Len()
}

func (c *Collector) CanLoadMore(ctx context.Context) bool {
	return c.panel.CanLoadMore(ctx)
}

func (c *Collector) LoadMore(ctx context.Context) error {
	return c.panel.LoadMore(ctx)
}

func (c *Collector) ScrollSignal(ctx context.Context) int64 {
	return c.panel.ScrollSignal(ctx)
}

var _ reveal.Collaborator = (*Collector)(nil)
