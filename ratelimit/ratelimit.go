// Package ratelimit implements a per-key sliding-window rate limiter. Unlike
// a token bucket it remembers the exact timestamps inside the window, so a
// burst that exhausts the limit is re-admitted only as its oldest calls age
// out.
package ratelimit

import (
	"sync"
	"time"
)

// Options configures a Limiter.
type Options struct {
	// Window is the sliding interval over which calls are counted.
	Window time.Duration

	// Now is the clock. Injectable for tests.
	Now func() time.Time
}

// Limiter admits up to limit calls per key within a sliding window. The zero
// value is unusable; construct via New.
//
// Concurrency: a single mutex serializes all decisions, which keeps the
// prune-then-append sequence atomic per call.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	calls  map[string][]time.Time
}

// New creates a Limiter admitting limit calls per key per window. The window
// defaults to one minute.
func New(limit int, optFns ...func(o *Options)) *Limiter {
	opts := Options{
		Window: time.Minute,
		Now:    time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Limiter{
		limit:  limit,
		window: opts.Window,
		now:    opts.Now,
		calls:  make(map[string][]time.Time),
	}
}

// Allow records a call for the key if the key is under its limit and reports
// whether the call was admitted. A rejected call is not recorded and does not
// extend the window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(key)
	if len(recent) >= l.limit {
		l.calls[key] = recent
		return false
	}

	l.calls[key] = append(recent, l.now())
	return true
}

// Remaining reports how many further calls the key could make right now.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(key)
	l.calls[key] = recent

	if n := l.limit - len(recent); n > 0 {
		return n
	}
	return 0
}

// Reset forgets all recorded calls for the key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.calls, key)
}

// prune drops timestamps that fell out of the window. Caller holds the lock.
func (l *Limiter) prune(key string) []time.Time {
	cutoff := l.now().Add(-l.window)
	recent := l.calls[key]
	for len(recent) > 0 && !recent[0].After(cutoff) {
		recent = recent[1:]
	}
	return recent
}
