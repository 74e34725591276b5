package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter provides rate limiting functionality. It is injected
// wherever limiting is needed so a distributed implementation can be
// swapped in for multi-instance deployments.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter implements sliding window rate limiting backed
// by an in-process expiring map.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	windowSize time.Duration
	lastSweep  time.Time
}

type window struct {
	requests []time.Time
	mu       sync.Mutex
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		windowSize: windowSize,
		lastSweep:  time.Now(),
	}
}

// Allow checks if a request is allowed
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	l.sweepLocked()
	w, exists := l.windows[key]
	if !exists {
		w = &window{requests: make([]time.Time, 0)}
		l.windows[key] = w
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-l.windowSize)

	valid := w.requests[:0]
	for _, reqTime := range w.requests {
		if reqTime.After(windowStart) {
			valid = append(valid, reqTime)
		}
	}
	w.requests = valid

	if len(w.requests) >= l.limit {
		return false, nil
	}

	w.requests = append(w.requests, now)
	return true, nil
}

// Reset resets the rate limit for a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
	return nil
}

// sweepLocked drops windows that have seen no traffic for several
// window lengths. Caller must hold l.mu.
func (l *SlidingWindowLimiter) sweepLocked() {
	now := time.Now()
	if now.Sub(l.lastSweep) < 10*l.windowSize {
		return
	}
	l.lastSweep = now

	cutoff := now.Add(-2 * l.windowSize)
	for key, w := range l.windows {
		w.mu.Lock()
		idle := len(w.requests) == 0 || w.requests[len(w.requests)-1].Before(cutoff)
		w.mu.Unlock()
		if idle {
			delete(l.windows, key)
		}
	}
}

// TurnRateLimiter limits conversation turns per scope so one client
// cannot burn model budget in a tight loop.
type TurnRateLimiter struct {
	limiter RateLimiter
	limit   int
}

// NewTurnRateLimiter creates a turn rate limiter allowing the given
// number of turns per minute per scope.
func NewTurnRateLimiter(turnsPerMinute int) *TurnRateLimiter {
	return &TurnRateLimiter{
		limiter: NewSlidingWindowLimiter(turnsPerMinute, time.Minute),
		limit:   turnsPerMinute,
	}
}

// Limit returns the configured turns per minute.
func (l *TurnRateLimiter) Limit() int {
	return l.limit
}

// Allow checks if a turn from the given scope is allowed.
func (l *TurnRateLimiter) Allow(ctx context.Context, scope Scope) (bool, error) {
	return l.limiter.Allow(ctx, scope.Key())
}

// Reset clears the limit for a scope.
func (l *TurnRateLimiter) Reset(ctx context.Context, scope Scope) error {
	return l.limiter.Reset(ctx, scope.Key())
}
