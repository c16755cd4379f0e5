// Package reveal drives the collection of one category from a surface that
// reveals its content progressively.
//
// A Controller runs an explicit tick loop: each tick harvests what is
// visible, checks the stop conditions, asks for more content when the
// surface offers it, and sleeps a jittered delay. The loop always ends,
// either Settled (cap reached, advertised total reached, or the surface
// stopped changing) or Aborted (tick budget spent or context cancelled).
package reveal

import (
	"context"
	"math/rand"
	"time"

	"engage/pkg/logger"
	"engage/pkg/ratelimit"
	"engage/pkg/retry"
)

// State is the lifecycle position of a Controller.
type State int

const (
	Idle State = iota
	Polling
	Settled
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Settled:
		return "settled"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Stop reasons reported in Result.Reason.
const (
	ReasonGlobalCap = "global cap reached"
	ReasonExpected  = "expected total reached"
	ReasonStable    = "surface stopped changing"
	ReasonMaxTicks  = "tick budget exhausted"
	ReasonCancelled = "cancelled"
)

// Collaborator is the category-specific side of a run.
type Collaborator interface {
	// ExpectedTotal returns the total advertised by the surface, if any.
	ExpectedTotal(ctx context.Context) (int, bool)
	// HarvestVisible records what is currently visible and returns how many
	// records were new to the category.
	HarvestVisible(ctx context.Context) (int, error)
	// Count returns the number of records carrying the category.
	Count() int
	// Total returns the number of records across all categories.
	Total() int
	CanLoadMore(ctx context.Context) bool
	LoadMore(ctx context.Context) error
	ScrollSignal(ctx context.Context) int64
}

// Delay is a jittered pause: Base plus up to Spread.
type Delay struct {
	Base   time.Duration
	Spread time.Duration
}

// Config tunes a Controller.
type Config struct {
	GlobalCap          int
	MaxTicks           int
	StableThreshold    int
	UnchangedThreshold int
	// SmallTotal selects SmallDelay when the advertised total is below it.
	SmallTotal int
	SmallDelay Delay
	LargeDelay Delay
}

// DefaultConfig returns the tuning used when a category sets nothing.
func DefaultConfig() Config {
	return Config{
		GlobalCap:          2000,
		MaxTicks:           100,
		StableThreshold:    3,
		UnchangedThreshold: 3,
		SmallTotal:         50,
		SmallDelay:         Delay{Base: 600 * time.Millisecond, Spread: 300 * time.Millisecond},
		LargeDelay:         Delay{Base: 900 * time.Millisecond, Spread: 600 * time.Millisecond},
	}
}

// Result summarizes a finished run.
type Result struct {
	State    State
	Reason   string
	Ticks    int
	Count    int
	Expected int
	Elapsed  time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithSleeper replaces the wall-clock sleep between ticks.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *Controller) { c.sleeper = s }
}

// WithRand sets the jitter source.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

// WithLimiter paces load-more actions. A tick without budget waits for it
// through the sleeper before loading.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Controller) { c.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller is the progressive reveal state machine for one category.
type Controller struct {
	name    string
	cfg     Config
	sleeper retry.Sleeper
	rng     *rand.Rand
	limiter ratelimit.Limiter
	logger  logger.Logger
	state   State
}

// New returns an idle controller. name labels log lines.
func New(name string, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		name:    name,
		cfg:     cfg,
		sleeper: retry.RealSleeper,
		limiter: ratelimit.Unlimited{},
		logger:  logger.NewNopLogger(),
		state:   Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.MaxTicks <= 0 {
		c.cfg.MaxTicks = 1
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Run polls collab until a stop condition holds. The reported count never
// decreases during a run even when merges shrink the category.
func (c *Controller) Run(ctx context.Context, collab Collaborator) Result {
	start := time.Now()
	c.state = Polling

	var (
		res       Result
		high      int
		lastCount = -1
		lastSig   int64
		stable    int
		unchanged int
	)
	finish := func(state State, reason string) Result {
		c.state = state
		res.State = state
		res.Reason = reason
		res.Count = high
		res.Elapsed = time.Since(start)
		return res
	}

	for tick := 1; ; tick++ {
		if ctx.Err() != nil {
			return finish(Aborted, ReasonCancelled)
		}
		res.Ticks = tick

		expected, known := collab.ExpectedTotal(ctx)
		if known {
			res.Expected = expected
		}

		added, err := collab.HarvestVisible(ctx)
		if err != nil {
			c.logger.WithError(err).WarnWithFields("Harvest failed, skipping tick", map[string]interface{}{
				"stage": c.name,
				"tick":  tick,
			})
		}

		count := collab.Count()
		if count > high {
			high = count
		}
		logger.LogTick(c.logger, c.name, tick, high, res.Expected)

		if c.cfg.GlobalCap > 0 && collab.Total() >= c.cfg.GlobalCap {
			return finish(Settled, ReasonGlobalCap)
		}
		if known && expected > 0 && high >= expected {
			return finish(Settled, ReasonExpected)
		}

		if collab.CanLoadMore(ctx) {
			if wait := c.limiter.Reserve(); wait > 0 {
				c.logger.DebugWithFields("Waiting for load-more budget", map[string]interface{}{
					"stage":   c.name,
					"tick":    tick,
					"wait_ms": wait.Milliseconds(),
				})
				if err := c.sleeper.Sleep(ctx, wait); err != nil {
					return finish(Aborted, ReasonCancelled)
				}
			}
			if err := collab.LoadMore(ctx); err != nil {
				c.logger.WithError(err).DebugWithFields("Load more failed", map[string]interface{}{
					"stage": c.name,
					"tick":  tick,
				})
			}
		}

		sig := collab.ScrollSignal(ctx)
		if sig == lastSig {
			stable++
		} else {
			stable = 0
		}
		lastSig = sig

		if added == 0 && high == lastCount {
			unchanged++
		} else {
			unchanged = 0
		}
		lastCount = high

		if stable >= c.cfg.StableThreshold && unchanged >= c.cfg.UnchangedThreshold {
			return finish(Settled, ReasonStable)
		}
		if tick >= c.cfg.MaxTicks {
			return finish(Aborted, ReasonMaxTicks)
		}

		if err := c.sleeper.Sleep(ctx, c.delay(expected, known)); err != nil {
			return finish(Aborted, ReasonCancelled)
		}
	}
}

// delay picks the pause before the next tick; small known totals poll faster.
func (c *Controller) delay(expected int, known bool) time.Duration {
	d := c.cfg.LargeDelay
	if known && expected > 0 && expected < c.cfg.SmallTotal {
		d = c.cfg.SmallDelay
	}
	return retry.Jitter(d.Base, d.Spread, c.rng)
}
