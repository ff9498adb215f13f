// Package ratelimit bounds outbound calls to at most N per trailing window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter admits at most calls acquisitions in any trailing window. It keeps
// the admission times of the last calls grants; the check and the record
// happen under one lock so concurrent workers cannot both take the last slot.
type Limiter struct {
	mu      sync.Mutex
	calls   int
	window  time.Duration
	granted []time.Time
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
	onGrant func(time.Time)
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source and the wait primitive.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// New returns a limiter allowing calls acquisitions per window. A limiter
// with calls <= 0 or window <= 0 never blocks.
func New(calls int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		calls:  calls,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until a call may proceed, then records it. It returns the
// context error if ctx ends first; no slot is consumed in that case.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil || l.calls <= 0 || l.window <= 0 {
		return ctx.Err()
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait, ok := l.tryAcquire()
		if ok {
			return nil
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (l *Limiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	keep := 0
	for keep < len(l.granted) && !l.granted[keep].After(cutoff) {
		keep++
	}
	l.granted = l.granted[keep:]

	if len(l.granted) < l.calls {
		l.granted = append(l.granted, now)
		if l.onGrant != nil {
			l.onGrant(now)
		}
		return 0, true
	}
	wait := l.granted[0].Add(l.window).Sub(now)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

// InWindow reports how many grants fall inside the current trailing window.
func (l *Limiter) InWindow() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.window)
	count := 0
	for _, ts := range l.granted {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
