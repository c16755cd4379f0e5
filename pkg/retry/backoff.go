package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy maps a failed attempt number to the pause before the next.
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles (by Multiplier) from BaseDelay up to MaxDelay.
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor spreads each delay by up to this share in either direction
	JitterFactor float64
}

// DefaultExponentialBackoff is sized for webhook delivery.
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := math.Min(float64(b.BaseDelay)*math.Pow(b.Multiplier, float64(attempt-1)), float64(b.MaxDelay))
	if b.JitterFactor > 0 {
		d *= 1 + b.JitterFactor*(2*rand.Float64()-1)
	}
	return time.Duration(math.Max(d, 0))
}

// ConstantBackoff pauses the same Delay after every attempt.
type ConstantBackoff struct {
	Delay time.Duration
}

func (b *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return b.Delay
}

// Jitter returns base plus a uniformly random share of spread. A nil source
// uses the global generator.
func Jitter(base, spread time.Duration, src *rand.Rand) time.Duration {
	if spread <= 0 {
		return base
	}
	f := rand.Float64
	if src != nil {
		f = src.Float64
	}
	return base + time.Duration(f()*float64(spread))
}

// Wait pauses for d on the wall clock. It returns early with the context
// error when ctx ends first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sleeper suspends the caller between polling steps.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f.
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// RealSleeper sleeps on the wall clock using Wait.
var RealSleeper Sleeper = SleeperFunc(Wait)
