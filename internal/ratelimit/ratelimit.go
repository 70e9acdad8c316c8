// Package ratelimit implements a fixed-window request counter keyed by
// caller identity. The table is process-local; in a multi-instance
// deployment the limit is per process, not fleet-wide. In production
// use a shared store (e.g. Redis INCR with TTL) instead.
package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of a single Check call. Disallowing is a
// first-class value, not an error.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type record struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key inside fixed windows of duration
// window, allowing at most max per window. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	records map[string]*record
}

func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		records: make(map[string]*record),
	}
}

func (l *Limiter) Max() int {
	return l.max
}

// Check records one request for key at time now and reports whether it
// fits in the current window. Over-limit requests still count against
// the window, so retrying cannot reset it early.
func (l *Limiter) Check(key string, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[key]
	if !ok || now.After(r.resetAt) {
		r = &record{count: 1, resetAt: now.Add(l.window)}
		l.records[key] = r
		return Result{Allowed: true, Remaining: l.max - 1, ResetAt: r.resetAt}
	}

	r.count++
	if r.count > l.max {
		return Result{Allowed: false, Remaining: 0, ResetAt: r.resetAt}
	}
	return Result{Allowed: true, Remaining: l.max - r.count, ResetAt: r.resetAt}
}

// Sweep drops records whose window has already expired and returns how
// many were removed. Bounds memory growth for churning key sets.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, r := range l.records {
		if now.After(r.resetAt) {
			delete(l.records, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// StartSweeper runs Sweep every period until stop is closed.
func (l *Limiter) StartSweeper(period time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep(time.Now())
			case <-stop:
				return
			}
		}
	}()
}
