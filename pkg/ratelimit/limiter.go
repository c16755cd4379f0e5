package ratelimit

import (
	"sync"
	"time"
)

// Limiter hands out budget for one action at a time.
type Limiter interface {
	// Reserve takes one unit of budget and returns how long the caller must
	// wait before acting on it. Zero means act now.
	Reserve() time.Duration
}

// Clock returns the current time.
type Clock func() time.Time

// TokenBucket holds up to capacity tokens and earns capacity tokens per
// period, accrued continuously.
type TokenBucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	perToken time.Duration
	last     time.Time
	now      Clock
}

// NewTokenBucket returns a full bucket on the wall clock.
func NewTokenBucket(capacity int, period time.Duration) *TokenBucket {
	return NewTokenBucketWithClock(capacity, period, time.Now)
}

// NewTokenBucketWithClock returns a full bucket driven by clock. A capacity
// below one is raised to one.
func NewTokenBucketWithClock(capacity int, period time.Duration, clock Clock) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{
		capacity: float64(capacity),
		tokens:   float64(capacity),
		perToken: period / time.Duration(capacity),
		last:     clock(),
		now:      clock,
	}
}

// PerMinute averages actions per minute and allows bursts of burst.
func PerMinute(actions, burst int) *TokenBucket {
	actions = max(actions, 1)
	burst = max(burst, 1)
	return NewTokenBucket(burst, time.Duration(burst)*time.Minute/time.Duration(actions))
}

// Reserve always grants the action. When the bucket is empty the balance
// goes negative and the returned wait covers the debt, so consecutive
// reservations queue up behind each other.
func (b *TokenBucket) Reserve() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.accrue()
	b.tokens--
	if b.tokens >= 0 {
		return 0
	}
	return time.Duration(-b.tokens * float64(b.perToken))
}

// Remaining returns the whole tokens available now.
func (b *TokenBucket) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.accrue()
	return max(0, int(b.tokens))
}

// Reset refills the bucket.
func (b *TokenBucket) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = b.capacity
	b.last = b.now()
}

func (b *TokenBucket) accrue() {
	now := b.now()
	elapsed := now.Sub(b.last)
	if elapsed <= 0 {
		return
	}
	b.last = now
	if b.perToken <= 0 {
		b.tokens = b.capacity
		return
	}
	b.tokens = min(b.capacity, b.tokens+float64(elapsed)/float64(b.perToken))
}

// Unlimited allows every action.
type Unlimited struct{}

func (Unlimited) Reserve() time.Duration { return 0 }
