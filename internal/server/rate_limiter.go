package server

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window counter per key.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time
	mu     sync.Mutex
	items  map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		now:    func() time.Time { return time.Now().UTC() },
		items:  make(map[string]*rateLimitEntry),
	}
}

// Allow reports whether key may proceed. A nil limiter allows everything.
func (r *rateLimiter) Allow(key string) bool {
	if r == nil {
		return true
	}
	if key == "" {
		return false
	}

	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.items[key]
	if entry == nil || now.Sub(entry.windowStart) >= r.window {
		entry = &rateLimitEntry{windowStart: now}
		r.items[key] = entry
		r.prune(now)
	}

	if entry.count >= r.limit {
		return false
	}

	entry.count++
	return true
}

// prune drops stale windows so idle accounts do not accumulate. Callers hold mu.
func (r *rateLimiter) prune(now time.Time) {
	if len(r.items) < 1024 {
		return
	}
	for key, entry := range r.items {
		if now.Sub(entry.windowStart) >= r.window {
			delete(r.items, key)
		}
	}
}
