package inference

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"legal-extraction-engine/internal/xerrors"
)

// Limiter is the InferenceClient's resource gate (spec.md §4.6,
// §9 "rate bucket / semaphore: independent co-located state machines"):
// a semaphore bounding MaxConcurrentRequests and a leaky bucket bounding
// RequestsPerMinute.
type Limiter struct {
	sem    *semaphore.Weighted
	bucket *rate.Limiter
}

// NewLimiter builds a Limiter from spec.md §6's
// max_concurrent_requests / requests_per_minute.
func NewLimiter(maxConcurrent, requestsPerMinute int) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	ratePerSecond := float64(requestsPerMinute) / 60.0
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &Limiter{
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		bucket: rate.NewLimiter(rate.Limit(ratePerSecond), maxConcurrent),
	}
}

// Acquire blocks (respecting ctx) until both the semaphore and the
// bucket admit the call, or ctx is done. It returns a release function.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, xerrors.NewCancelledError("rate limiter wait cancelled")
		}
		return nil, xerrors.NewResourceError("failed to acquire concurrency slot")
	}
	if err := l.bucket.Wait(ctx); err != nil {
		l.sem.Release(1)
		if ctx.Err() != nil {
			return nil, xerrors.NewCancelledError("rate limiter wait cancelled")
		}
		return nil, xerrors.NewResourceError("rate bucket wait exceeded")
	}
	return func() { l.sem.Release(1) }, nil
}
