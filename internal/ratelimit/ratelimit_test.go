package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, p Policy) (*KeyedRateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newLimiter(p, clock.Now)
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		calls    int
		wantPass int
	}{
		{"within limit", Policy{Limit: 3, Window: time.Minute}, 3, 3},
		{"exceeding limit blocks", Policy{Limit: 2, Window: time.Minute}, 5, 2},
		{"comment policy", Policy{Limit: 10, Window: 15 * time.Minute}, 11, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, _ := newTestLimiter(t, tt.policy)

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("client") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_KeysIndependent(t *testing.T) {
	rl, _ := newTestLimiter(t, Policy{Limit: 1, Window: time.Hour})

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}

func TestKeyedRateLimiter_Take(t *testing.T) {
	rl, clock := newTestLimiter(t, Policy{Limit: 30, Window: time.Hour})

	res := rl.Take("client")
	require.True(t, res.Allowed)
	assert.Equal(t, 30, res.Limit)
	assert.Equal(t, 29, res.Remaining)
	assert.Zero(t, res.RetryAfter)

	for i := 0; i < 29; i++ {
		require.True(t, rl.Take("client").Allowed)
	}

	res = rl.Take("client")
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	// One token refills every window/limit.
	assert.InDelta(t, (2 * time.Minute).Seconds(), res.RetryAfter.Seconds(), 1)

	// A rejection does not push the refill further out.
	again := rl.Take("client")
	assert.False(t, again.Allowed)
	assert.InDelta(t, res.RetryAfter.Seconds(), again.RetryAfter.Seconds(), 1)

	clock.Advance(res.RetryAfter + time.Second)
	assert.True(t, rl.Take("client").Allowed)
}

func TestKeyedRateLimiter_RefillsAfterWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, Policy{Limit: 5, Window: 15 * time.Minute})

	for i := 0; i < 5; i++ {
		require.True(t, rl.Allow("client"))
	}
	require.False(t, rl.Allow("client"))

	// Past a full window the bucket is capped at the limit.
	clock.Advance(16 * time.Minute)
	res := rl.Take("client")
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)
}

func TestKeyedRateLimiter_Sweep(t *testing.T) {
	rl, clock := newTestLimiter(t, Policy{Limit: 1, Window: time.Minute})

	rl.Allow("old")
	clock.Advance(2 * time.Minute)
	rl.Allow("fresh")
	require.Equal(t, 2, rl.Len())

	rl.sweep()
	assert.Equal(t, 1, rl.Len())
	// A swept key starts with a full bucket.
	assert.True(t, rl.Allow("old"))
}

func TestKeyedRateLimiter_StopIdempotent(t *testing.T) {
	rl := New(Policy{Limit: 1, Window: time.Second})
	rl.Stop()
	rl.Stop()
}
