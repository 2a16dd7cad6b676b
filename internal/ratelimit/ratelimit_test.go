package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, krl *KeyedRateLimiter) *fakeClock {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	krl.now = clock.now
	t.Cleanup(krl.Stop)
	return clock
}

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{"burst allows initial requests", 1, 3, 3, 3},
		{"exceeding burst blocks", 1, 2, 5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			newTestLimiter(t, rl)

			passed := 0
			for range tt.calls {
				if rl.Allow("client") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestPerMinute(t *testing.T) {
	rl := PerMinute(10)
	clock := newTestLimiter(t, rl)

	for i := range 10 {
		require.True(t, rl.Allow("10.0.0.1"), "attempt %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"), "eleventh attempt within the minute is refused")
	assert.True(t, rl.Allow("10.0.0.2"), "keys are independent")

	assert.InDelta(t, 6*time.Second, rl.RetryAfter("10.0.0.1"), float64(time.Millisecond))

	clock.advance(6*time.Second + 10*time.Millisecond)
	assert.True(t, rl.Allow("10.0.0.1"), "one token refills every six seconds")
	assert.False(t, rl.Allow("10.0.0.1"))

	clock.advance(time.Minute)
	for range 10 {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
}

func TestKeyedRateLimiter_EvictIdle(t *testing.T) {
	rl := PerMinute(5)
	clock := newTestLimiter(t, rl)

	rl.Allow("old")
	clock.advance(DefaultIdleTTL / 2)
	rl.Allow("recent")
	require.Equal(t, 2, rl.tracked())

	clock.advance(DefaultIdleTTL/2 + time.Second)
	assert.Equal(t, 1, rl.evictIdle())
	assert.Equal(t, 1, rl.tracked())
}

func TestKeyedRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	rl.Stop()
}
