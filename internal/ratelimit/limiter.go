// Package ratelimit implements an in-memory sliding-window rate limiter.
// State lives in the process and resets on restart; submissions are
// rate limited per client key, and keys are independent of each other.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter allows at most limit events per key within any trailing window.
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter and starts a background goroutine that evicts
// keys with no activity inside the window. Call Stop to release it.
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		stop:     make(chan struct{}),
	}

	go l.cleanup()

	return l
}

// Allow records an event for key at time now and reports whether it is
// within the limit. The check and the append happen under one lock so
// concurrent submissions from the same key cannot exceed the limit.
func (l *Limiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	valid := l.prune(key, now)

	if len(valid) >= l.limit {
		l.requests[key] = valid
		return false
	}

	l.requests[key] = append(valid, now)
	return true
}

// Remaining returns how many events key may still submit within the
// current window.
func (l *Limiter) Remaining(key string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := l.limit - len(l.prune(key, now))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset returns the time at which the oldest in-window event for key
// falls out of the window.
func (l *Limiter) Reset(key string, now time.Time) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	valid := l.prune(key, now)
	if len(valid) == 0 {
		return now
	}

	oldest := valid[0]
	for _, t := range valid[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}
	return oldest.Add(l.window)
}

// Stop terminates the background eviction goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// prune drops timestamps outside the trailing window. Caller must hold mu.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	windowStart := now.Add(-l.window)

	var valid []time.Time
	for _, t := range l.requests[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	return valid
}

// cleanup periodically removes idle keys so the map does not grow
// without bound under long uptimes.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			windowStart := now.Add(-l.window)
			for key, requests := range l.requests {
				idle := true
				for _, t := range requests {
					if t.After(windowStart) {
						idle = false
						break
					}
				}
				if idle {
					delete(l.requests, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
