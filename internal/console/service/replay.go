package service

import (
	"sync"
	"time"
)

// ReplayGuard remembers recently accepted one-time codes so a captured code
// cannot be replayed inside its validity window. State is process-local and
// in-memory by design: a login completes within one process lifetime, so
// losing the cache on restart costs nothing.
type ReplayGuard struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time // key -> expiry
}

// NewReplayGuard builds a guard whose TTL should approximate the OTP
// verification tolerance window.
func NewReplayGuard(ttl time.Duration) *ReplayGuard {
	return &ReplayGuard{
		ttl:  ttl,
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

// Consume records the (username, code) pair and reports whether this is its
// first use. A replayed pair is rejected here, before any OTP math runs.
func (g *ReplayGuard) Consume(username, code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, expiry := range g.seen {
		if now.After(expiry) {
			delete(g.seen, key)
		}
	}

	key := username + ":" + code
	if _, used := g.seen[key]; used {
		return false
	}
	g.seen[key] = now.Add(g.ttl)
	return true
}
