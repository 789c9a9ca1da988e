package httpx

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter keeps an independent token bucket per key. The console uses
// it to throttle repeated sign-in attempts per username, which blunts both
// password and one-time-code brute forcing.
type KeyedLimiter struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	lastSweep time.Time
}

// NewKeyedLimiter allows attempts per window for each key, with the full
// window available as a burst.
func NewKeyedLimiter(attempts int, window time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		limit:     rate.Limit(float64(attempts) / window.Seconds()),
		burst:     attempts,
		limiters:  make(map[string]*rate.Limiter),
		lastSweep: time.Now(),
	}
}

// Allow reports whether the key may proceed, consuming one token if so.
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	l, ok := kl.limiters[key]
	if !ok {
		l = rate.NewLimiter(kl.limit, kl.burst)
		kl.limiters[key] = l
	}
	kl.sweepLocked()
	kl.mu.Unlock()

	return l.Allow()
}

// sweepLocked drops idle buckets so ephemeral keys don't accumulate. A bucket
// back at full capacity has not been used for at least a full window.
func (kl *KeyedLimiter) sweepLocked() {
	if time.Since(kl.lastSweep) < 5*time.Minute {
		return
	}
	kl.lastSweep = time.Now()

	for key, l := range kl.limiters {
		if l.Tokens() >= float64(kl.burst) {
			delete(kl.limiters, key)
		}
	}
}
