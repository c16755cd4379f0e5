package retry

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "engage/pkg/errors"
	"engage/pkg/logger"
)

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

// failing returns an operation that fails n times with err, then succeeds.
func failing(n int, err error, calls *int) Operation {
	return func() error {
		*calls++
		if *calls <= n {
			return err
		}
		return nil
	}
}

func TestExponentialBackoffCurve(t *testing.T) {
	b := &ExponentialBackoff{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	want := map[int]time.Duration{
		0: 0,
		1: 100 * time.Millisecond,
		2: 200 * time.Millisecond,
		3: 400 * time.Millisecond,
		4: 800 * time.Millisecond,
		5: time.Second,
		9: time.Second,
	}
	for attempt, d := range want {
		assert.Equal(t, d, b.NextDelay(attempt), "attempt %d", attempt)
	}
}

func TestExponentialBackoffJitterStaysInBand(t *testing.T) {
	b := &ExponentialBackoff{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2, JitterFactor: 0.3}
	for i := 0; i < 50; i++ {
		d := b.NextDelay(2)
		assert.GreaterOrEqual(t, d, 140*time.Millisecond)
		assert.LessOrEqual(t, d, 260*time.Millisecond)
	}
}

func TestConstantBackoff(t *testing.T) {
	b := &ConstantBackoff{Delay: 30 * time.Millisecond}
	assert.Equal(t, time.Duration(0), b.NextDelay(0))
	assert.Equal(t, 30*time.Millisecond, b.NextDelay(7))
}

func TestJitter(t *testing.T) {
	src := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		d := Jitter(600*time.Millisecond, 300*time.Millisecond, src)
		assert.GreaterOrEqual(t, d, 600*time.Millisecond)
		assert.Less(t, d, 900*time.Millisecond)
	}
	assert.Equal(t, 900*time.Millisecond, Jitter(900*time.Millisecond, 0, nil))
}

func TestDoRecoversAfterTransientFailures(t *testing.T) {
	var calls int
	sleeper := &recordingSleeper{}
	var retried []int

	err := Do(failing(2, errors.New("connection reset"), &calls), &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		Sleeper:     sleeper,
		OnRetry:     func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) },
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, sleeper.delays)
}

func TestDoGivesUpAtMaxAttempts(t *testing.T) {
	var calls int
	sleeper := &recordingSleeper{}
	log := logger.NewTestLogger()

	err := Do(failing(10, errors.New("503 from hook"), &calls), &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		Sleeper:     sleeper,
		Logger:      log,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503 from hook")
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeper.delays, 2, "no pause after the last attempt")
	assert.True(t, log.HasMessage("Giving up"))
	assert.Len(t, log.GetMessagesByLevel("WARN"), 3)
}

func TestDoReturnsRejectedErrorAsIs(t *testing.T) {
	var calls int
	rejected := &errs.Error{Type: errs.ErrorTypeRejected, Message: "unauthorized", Code: 401}

	err := Do(failing(10, rejected, &calls), &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		Sleeper:     &recordingSleeper{},
	})

	assert.Same(t, rejected, err)
	assert.Equal(t, 1, calls)
}

func TestDoStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int

	err := Do(func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("timeout")
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 100 * time.Millisecond},
		Context:     ctx,
		Sleeper:     &recordingSleeper{},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, false},
		{"wrapped cancel", errs.Wrap(errs.ErrorTypeNetwork, "post", context.Canceled), false},
		{"server error", errs.New(errs.ErrorTypeServerError, "502"), true},
		{"rejected", errs.New(errs.ErrorTypeRejected, "400"), false},
		{"untyped", errors.New("eof"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DefaultRetryIf(tc.err))
		})
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errs.New(errs.ErrorTypeNetwork, "reset")
		}
		return 42, nil
	}, &Config{MaxAttempts: 2, Backoff: &ConstantBackoff{}, Sleeper: &recordingSleeper{}})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestPoll(t *testing.T) {
	t.Run("becomes true", func(t *testing.T) {
		sleeper := &recordingSleeper{}
		calls := 0
		ok, err := Poll(context.Background(), sleeper, 20, 150*time.Millisecond, func(context.Context) bool {
			calls++
			return calls == 4
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, sleeper.delays, 3)
	})

	t.Run("exhausted", func(t *testing.T) {
		sleeper := &recordingSleeper{}
		calls := 0
		ok, err := Poll(context.Background(), sleeper, 15, 250*time.Millisecond, func(context.Context) bool {
			calls++
			return false
		})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 15, calls)
		assert.Len(t, sleeper.delays, 14)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ok, err := Poll(ctx, &recordingSleeper{}, 5, time.Second, func(context.Context) bool { return false })
		assert.False(t, ok)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
