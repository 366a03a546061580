// Package ratelimit provides per-client-key request admission control.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// entry tracks one client key's window.
type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window counter per key. Bursts straddling a window
// boundary are an accepted tradeoff over a true sliding log.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	window time.Duration
	max    int
}

// NewLimiter creates a limiter admitting at most max requests per key
// per window.
func NewLimiter(window time.Duration, max int) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		window:  window,
		max:     max,
	}
}

// Admit decides whether a request for key may proceed at now. When
// rejected, retryAfter is the whole number of seconds until the current
// window resets, never less than one.
func (l *Limiter) Admit(key string, now time.Time) (allowed bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(l.window)}
		return true, 0
	}

	if e.count >= l.max {
		secs := int(math.Ceil(e.resetAt.Sub(now).Seconds()))
		if secs < 1 {
			secs = 1
		}
		return false, secs
	}

	e.count++
	return true, 0
}

// Sweep drops entries whose window has passed so the map does not grow
// with client churn.
func (l *Limiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
		}
	}
}
