package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"engage/pkg/collector"
	"engage/pkg/config"
	"engage/pkg/export"
	"engage/pkg/identity"
	"engage/pkg/logger"
	"engage/pkg/ratelimit"
	"engage/pkg/retry"
	"engage/pkg/reveal"
	"engage/pkg/surface"
)

// Exporter delivers the final batch.
type Exporter interface {
	Export(ctx context.Context, b export.Batch) (export.Delivery, error)
}

// Reporter receives progress for on-screen display.
type Reporter interface {
	StageStarted(stage string)
	StageFinished(rep collector.Report)
	Finished(s Summary)
}

// Config tunes a run.
type Config struct {
	GlobalCap  int
	Categories []identity.Category
	Collectors map[identity.Category]collector.Config

	StagePause  time.Duration
	SettleDelay time.Duration

	CancelPresses int
	CancelPause   time.Duration
	DismissPause  time.Duration

	ActionsPerMinute int
	Burst            int

	Filter *export.Filter
	Origin string
}

// FromConfig derives the run tuning from the application configuration.
func FromConfig(cfg *config.Config) (Config, error) {
	filter, err := export.NewFilter(cfg.Export.Filter)
	if err != nil {
		return Config{}, err
	}
	collectors := make(map[identity.Category]collector.Config, len(identity.AllCategories))
	for _, c := range identity.AllCategories {
		collectors[c] = collector.FromConfig(cfg, c)
	}
	return Config{
		GlobalCap:        cfg.Collection.GlobalCap,
		Categories:       identity.AllCategories,
		Collectors:       collectors,
		StagePause:       cfg.Collection.StagePause.Std(),
		SettleDelay:      cfg.Browser.SettleDelay.Std(),
		CancelPresses:    cfg.Overlay.CancelPresses,
		CancelPause:      cfg.Overlay.CancelPause.Std(),
		DismissPause:     cfg.Overlay.DismissPause.Std(),
		ActionsPerMinute: cfg.RateLimit.ActionsPerMinute,
		Burst:            cfg.RateLimit.BurstSize,
		Filter:           filter,
		Origin:           identity.DefaultOrigin,
	}, nil
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	PostURL   string
	Stages    []collector.Report
	Stats     identity.Stats
	Total     int
	Filtered  int
	Exported  int
	Truncated bool
	// Leftover counts overlays still open after the last stage.
	Leftover  int
	Delivery  export.Delivery
	Elapsed   time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithSleeper replaces every wall-clock wait of the run.
func WithSleeper(s retry.Sleeper) Option {
	return func(o *Orchestrator) { o.sleeper = s }
}

// WithLimiter paces load-more actions across all stages.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(o *Orchestrator) { o.limiter = l }
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// WithClock sets the time source used for the scrape timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator sequences the stages of a run over one page.
type Orchestrator struct {
	page     surface.Page
	exporter Exporter
	cfg      Config
	logger   logger.Logger
	sleeper  retry.Sleeper
	limiter  ratelimit.Limiter
	reporter Reporter
	runID    string
	now      func() time.Time
}

// New returns an orchestrator for page.
func New(page surface.Page, exporter Exporter, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		page:     page,
		exporter: exporter,
		cfg:      cfg,
		logger:   logger.GetLogger(),
		sleeper:  retry.RealSleeper,
		reporter: nopReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	if o.limiter == nil {
		if cfg.ActionsPerMinute > 0 {
			o.limiter = ratelimit.PerMinute(cfg.ActionsPerMinute, cfg.Burst)
		} else {
			o.limiter = ratelimit.Unlimited{}
		}
	}
	if len(o.cfg.Categories) == 0 {
		o.cfg.Categories = identity.AllCategories
	}
	if o.cfg.Origin == "" {
		o.cfg.Origin = identity.DefaultOrigin
	}
	o.logger = o.logger.WithFields(map[string]interface{}{
		"run_id": o.runID,
		"post":   page.SourceReference(),
	})
	return o
}

// RunID returns the run identifier.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Run collects every category and exports the result. The returned summary
// is filled in even when the export fails.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	scrapedAt := o.now()
	store := identity.NewStore(identity.WithLimit(o.cfg.GlobalCap))
	self := collector.NewSelfProbe(o.page, o.cfg.Origin)

	o.logger.InfoWithFields("Starting collection", map[string]interface{}{
		"categories": len(o.cfg.Categories),
		"global_cap": o.cfg.GlobalCap,
	})

	sum := Summary{RunID: o.runID, PostURL: o.page.SourceReference()}
	collectors := make(map[identity.Category]*collector.Collector, len(o.cfg.Categories))
	skipped := make(map[identity.Category]bool)

	for i, cat := range o.cfg.Categories {
		if ctx.Err() != nil {
			o.logger.Warn("Run cancelled, skipping remaining stages")
			break
		}
		if i > 0 && o.cfg.StagePause > 0 {
			_ = o.sleeper.Sleep(ctx, o.cfg.StagePause)
		}

		stage := collector.StageName(cat)
		o.reporter.StageStarted(stage)
		logger.LogStageStart(o.logger, stage, nil)

		c := o.newCollector(cat, store, self)
		collectors[cat] = c
		rep := c.Collect(ctx)
		if rep.Skipped {
			skipped[cat] = true
		} else {
			logger.LogStageComplete(o.logger, stage, rep.Result.State.String(), rep.Result.Ticks, rep.Result.Count, rep.Result.Elapsed)
		}
		sum.Stages = append(sum.Stages, rep)
		o.reporter.StageFinished(rep)

		sum.Leftover = o.ForceClose(ctx)
	}

	// Categories the run never reached are swept too, unless they were
	// skipped.
	var sweep []*collector.Collector
	for _, cat := range o.cfg.Categories {
		if skipped[cat] {
			continue
		}
		c, ok := collectors[cat]
		if !ok {
			c = o.newCollector(cat, store, self)
		}
		sweep = append(sweep, c)
	}

	err := o.finalize(context.WithoutCancel(ctx), store, sweep, scrapedAt, &sum)
	sum.Elapsed = time.Since(start)
	o.reporter.Finished(sum)
	return sum, err
}

func (o *Orchestrator) newCollector(cat identity.Category, store *identity.Store, self *collector.SelfProbe) *collector.Collector {
	return collector.New(o.page.Panel(cat), store, self, o.collectorConfig(cat),
		collector.WithLogger(o.logger),
		collector.WithSleeper(o.sleeper),
		collector.WithLimiter(o.limiter),
		collector.WithOrigin(o.cfg.Origin),
	)
}

func (o *Orchestrator) collectorConfig(c identity.Category) collector.Config {
	if cc, ok := o.cfg.Collectors[c]; ok {
		return cc
	}
	rc := collector.Config{PanelAttempts: 10, PanelInterval: 200 * time.Millisecond, Reveal: reveal.DefaultConfig()}
	rc.Reveal.GlobalCap = o.cfg.GlobalCap
	return rc
}

// finalize runs the last sweep and the export.
func (o *Orchestrator) finalize(ctx context.Context, store *identity.Store, collectors []*collector.Collector, scrapedAt time.Time, sum *Summary) error {
	if o.cfg.SettleDelay > 0 {
		_ = o.sleeper.Sleep(ctx, o.cfg.SettleDelay)
	}
	for _, c := range collectors {
		if !o.page.Panel(c.Category()).Available(ctx) {
			continue
		}
		if _, err := c.HarvestVisible(ctx); err != nil {
			o.logger.WithError(err).DebugWithFields("Final sweep failed", map[string]interface{}{
				"stage": collector.StageName(c.Category()),
			})
		}
	}

	sum.Stats = store.Stats()
	sum.Total = store.Len()

	rows := export.BuildRows(store.People(), o.page.SourceReference())
	rows, err := o.cfg.Filter.Apply(rows)
	if err != nil {
		return fmt.Errorf("filter rows: %w", err)
	}
	sum.Filtered = sum.Total - len(rows)
	rows, sum.Truncated = export.Truncate(rows, o.cfg.GlobalCap)
	sum.Exported = len(rows)

	o.logger.InfoWithFields("Collection complete", map[string]interface{}{
		"reactors":   sum.Stats.Reactors,
		"commenters": sum.Stats.Commenters,
		"reposters":  sum.Stats.Reposters,
		"total":      sum.Total,
		"exported":   sum.Exported,
		"truncated":  sum.Truncated,
	})

	delivery, err := o.exporter.Export(ctx, export.Batch{
		RunID:     o.runID,
		PostURL:   o.page.SourceReference(),
		ScrapedAt: scrapedAt,
		Stats:     sum.Stats,
		Rows:      rows,
	})
	sum.Delivery = delivery
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

type nopReporter struct{}

func (nopReporter) StageStarted(string)            {}
func (nopReporter) StageFinished(collector.Report) {}
func (nopReporter) Finished(Summary)               {}
