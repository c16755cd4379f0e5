package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTokenBucketBurstIsFree(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tb := NewTokenBucketWithClock(5, 5*time.Second, clock.now)

	for i := 0; i < 5; i++ {
		assert.Zero(t, tb.Reserve(), "token %d", i+1)
	}
	assert.Equal(t, 0, tb.Remaining())
}

func TestTokenBucketQueuesBeyondBurst(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tb := NewTokenBucketWithClock(2, 2*time.Second, clock.now)
	tb.Reserve()
	tb.Reserve()

	assert.Equal(t, time.Second, tb.Reserve())
	assert.Equal(t, 2*time.Second, tb.Reserve())

	clock.advance(2 * time.Second)
	assert.Equal(t, time.Second, tb.Reserve(), "time served pays off the debt")
}

func TestTokenBucketAccruesGradually(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tb := NewTokenBucketWithClock(4, 4*time.Second, clock.now)
	for i := 0; i < 4; i++ {
		tb.Reserve()
	}

	clock.advance(500 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, tb.Reserve(), "half a token earned")

	clock.advance(time.Hour)
	assert.Equal(t, 4, tb.Remaining(), "never above capacity")
}

func TestTokenBucketReset(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tb := NewTokenBucketWithClock(3, time.Hour, clock.now)
	for i := 0; i < 5; i++ {
		tb.Reserve()
	}

	tb.Reset()
	assert.Equal(t, 3, tb.Remaining())
}

func TestTokenBucketClampsCapacity(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tb := NewTokenBucketWithClock(0, time.Minute, clock.now)
	assert.Zero(t, tb.Reserve())
	assert.Equal(t, time.Minute, tb.Reserve())
}

func TestPerMinute(t *testing.T) {
	tb := PerMinute(60, 5)
	assert.Equal(t, time.Second, tb.perToken)
	assert.Equal(t, 5, tb.Remaining())

	tb = PerMinute(0, 0)
	assert.Equal(t, time.Minute, tb.perToken)
}

func TestTokenBucketConcurrentReserve(t *testing.T) {
	tb := NewTokenBucket(50, time.Hour)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		free int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if tb.Reserve() == 0 {
					mu.Lock()
					free++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, free)
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 100; i++ {
		assert.Zero(t, l.Reserve())
	}
}
