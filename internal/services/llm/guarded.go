package llm

import (
	"context"

	"pagesmith/internal/ratelimit"
	"pagesmith/internal/retry"
)

// Completer issues one chat completion.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Guarded wraps a Completer so every attempt first takes a rate limiter slot
// and retryable failures are retried per Policy. A nil Limiter does not pace.
type Guarded struct {
	Next    Completer
	Limiter *ratelimit.Limiter
	Policy  retry.Policy
}

// Complete runs req through the limiter and retry policy.
func (g Guarded) Complete(ctx context.Context, req Request) (string, error) {
	return retry.DoValue(ctx, g.Policy, func(ctx context.Context) (string, error) {
		if g.Limiter != nil {
			if err := g.Limiter.Acquire(ctx); err != nil {
				return "", err
			}
		}
		return g.Next.Complete(ctx, req)
	})
}
