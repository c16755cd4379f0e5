package retry

import (
	"context"
	"time"
)

// Poll evaluates cond up to attempts times, sleeping interval between
// evaluations, and reports whether cond became true. It returns the context
// error if the wait was cancelled.
func Poll(ctx context.Context, s Sleeper, attempts int, interval time.Duration, cond func(context.Context) bool) (bool, error) {
	if s == nil {
		s = RealSleeper
	}
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if cond(ctx) {
			return true, nil
		}
		if i == attempts-1 {
			break
		}
		if err := s.Sleep(ctx, interval); err != nil {
			return false, err
		}
	}
	return false, nil
}
