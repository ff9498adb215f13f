// Package retry applies exponential backoff to operations whose failures are
// classified as transient or fatal.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"pagesmith/internal/services"
)

// Class is the retry decision for one failure.
type Class int

const (
	// Fatal failures are returned to the caller unchanged.
	Fatal Class = iota
	// Retryable failures are attempted again after a backoff delay.
	Retryable
)

// Classifier maps an operation error to a retry decision.
type Classifier func(error) Class

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// TransientOnly retries errors tagged with services.ErrTransient.
func TransientOnly(err error) Class {
	if errors.Is(err, services.ErrTransient) {
		return Retryable
	}
	return Fatal
}

// Policy retries an operation up to MaxAttempts times. The delay after the
// failed attempt with zero-based index n is Base^n × Unit, so the defaults of
// base 2 and a one-second unit wait 1s, 2s, 4s.
type Policy struct {
	MaxAttempts int
	Base        float64
	Unit        time.Duration
	// MaxDelay caps a single wait when positive.
	MaxDelay time.Duration
	Classify Classifier
	Sleep    SleepFunc
	OnRetry  func(attempt int, delay time.Duration, err error)
}

// PermanentError reports that every attempt failed with a retryable error.
// It matches services.ErrPermanent and the last cause under errors.Is.
type PermanentError struct {
	Attempts int
	Cause    error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *PermanentError) Unwrap() []error {
	return []error{services.ErrPermanent, e.Cause}
}

// Delay returns the wait after the failed attempt with zero-based index attempt.
func (p Policy) Delay(attempt int) time.Duration {
	base := p.Base
	if base < 1 {
		base = 1
	}
	delay := time.Duration(math.Pow(base, float64(attempt)) * float64(p.Unit))
	if delay < 0 || (p.MaxDelay > 0 && delay > p.MaxDelay) {
		delay = p.MaxDelay
	}
	return delay
}

// Do runs op until it succeeds, fails fatally, or the attempts are exhausted.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	classify := p.Classify
	if classify == nil {
		classify = TransientOnly
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepWithContext
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ctxErr, err)
		}
		if classify(err) != Retryable {
			return err
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := p.hintedDelay(attempt, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return errors.Join(sleepErr, lastErr)
		}
	}
	return &PermanentError{Attempts: attempts, Cause: lastErr}
}

// hintedDelay stretches the backoff to a server-requested Retry-After.
func (p Policy) hintedDelay(attempt int, err error) time.Duration {
	delay := p.Delay(attempt)
	var hinted interface{ RetryAfter() time.Duration }
	if errors.As(err, &hinted) {
		if after := hinted.RetryAfter(); after > delay {
			delay = after
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}
	}
	return delay
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		value, err := op(ctx)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	return result, err
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
