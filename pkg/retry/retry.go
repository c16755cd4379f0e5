package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "engage/pkg/errors"
	"engage/pkg/logger"
)

// Operation is one attempt of a retried call.
type Operation func() error

// OperationWithResult is an attempt that also yields a value.
type OperationWithResult[T any] func() (T, error)

// Config controls Do. Zero fields fall back to the package defaults.
type Config struct {
	// MaxAttempts bounds the number of calls; 0 keeps trying until the
	// context ends or RetryIf says stop.
	MaxAttempts int
	Backoff     BackoffStrategy
	RetryIf     func(error) bool
	// OnRetry runs after a failed attempt, before the pause.
	OnRetry func(attempt int, err error, delay time.Duration)
	Context context.Context
	Sleeper Sleeper
	Logger  logger.Logger
}

// DefaultConfig allows three attempts with the webhook backoff.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf treats context errors as final, defers to the error type for
// *errs.Error values, and retries anything else.
func DefaultRetryIf(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return errs.IsRetryable(e.Type)
	}
	return true
}

// settled returns a copy of cfg with every unset field defaulted.
func settled(cfg *Config) Config {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.Context == nil {
		c.Context = context.Background()
	}
	if c.Sleeper == nil {
		c.Sleeper = RealSleeper
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
	if c.Backoff == nil {
		c.Backoff = DefaultExponentialBackoff()
	}
	if c.Logger == nil {
		c.Logger = logger.NewNopLogger()
	}
	return c
}

// Do calls op until it succeeds, returns an error RetryIf rejects, or runs
// out of attempts. A rejected error is returned unwrapped.
func Do(op Operation, cfg *Config) error {
	c := settled(cfg)

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 {
				c.Logger.DebugWithFields("Succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		if !c.RetryIf(err) {
			return err
		}
		if c.MaxAttempts > 0 && attempt >= c.MaxAttempts {
			c.Logger.WithError(err).WarnWithFields("Giving up", map[string]interface{}{
				"attempts": attempt,
			})
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		wait := c.Backoff.NextDelay(attempt)
		if c.OnRetry != nil {
			c.OnRetry(attempt, err, wait)
		}
		c.Logger.WithError(err).WarnWithFields("Attempt failed, retrying", map[string]interface{}{
			"attempt":  attempt,
			"delay_ms": wait.Milliseconds(),
		})
		if serr := c.Sleeper.Sleep(c.Context, wait); serr != nil {
			return fmt.Errorf("retry cancelled: %w", serr)
		}
	}
}

// DoWithResult is Do for operations that produce a value. The value of the
// last attempt is returned.
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var out T
	err := Do(func() error {
		v, err := op()
		out = v
		return err
	}, cfg)
	return out, err
}
