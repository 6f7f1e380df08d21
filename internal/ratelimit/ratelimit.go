// Package ratelimit provides a keyed rate limiter using the token bucket algorithm.
//
// A Policy of "limit requests per window" is expressed as a bucket holding
// limit tokens that refills at limit/window tokens per second, so a client
// that has been idle for a window gets its full allowance back.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Policy is a request allowance per time window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result describes the outcome of a Take.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // zero when Allowed
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
// Each unique key gets its own independent rate limiter.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	policy   Policy
	limit    rate.Limit
	now      func() time.Time

	// Cleanup
	idleTTL  time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a keyed rate limiter for policy. Keys unused for a full
// window are dropped by a background sweep; call Stop to end it.
func New(policy Policy) *KeyedRateLimiter {
	return newLimiter(policy, time.Now)
}

func newLimiter(policy Policy, now func() time.Time) *KeyedRateLimiter {
	if policy.Limit <= 0 {
		policy.Limit = 1
	}
	if policy.Window <= 0 {
		policy.Window = time.Second
	}

	krl := &KeyedRateLimiter{
		limiters: make(map[string]*entry),
		policy:   policy,
		limit:    rate.Limit(float64(policy.Limit) / policy.Window.Seconds()),
		now:      now,
		idleTTL:  policy.Window,
		done:     make(chan struct{}),
	}

	go krl.cleanup(max(policy.Window/4, time.Second))

	return krl
}

// Policy returns the limiter's configured allowance.
func (krl *KeyedRateLimiter) Policy() Policy {
	return krl.policy
}

// Allow reports whether a request for key may proceed, consuming a token if so.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.Take(key).Allowed
}

// Take consumes a token for key if one is available and reports the
// remaining allowance. A rejected request consumes nothing.
func (krl *KeyedRateLimiter) Take(key string) Result {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	now := krl.now()
	e, ok := krl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.policy.Limit)}
		krl.limiters[key] = e
	}
	e.lastSeen = now

	res := Result{Limit: krl.policy.Limit}
	r := e.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = delay
	} else {
		res.Allowed = true
	}

	res.Remaining = max(int(math.Floor(e.limiter.TokensAt(now))), 0)
	return res
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.limiters)
}

// Stop shuts down the cleanup goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

// sweep drops keys idle for longer than the TTL. An idle key's bucket has
// refilled completely, so forgetting it changes nothing for the client.
func (krl *KeyedRateLimiter) sweep() {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	cutoff := krl.now().Add(-krl.idleTTL)
	for key, e := range krl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(krl.limiters, key)
		}
	}
}

func (krl *KeyedRateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			krl.sweep()
		case <-krl.done:
			return
		}
	}
}
