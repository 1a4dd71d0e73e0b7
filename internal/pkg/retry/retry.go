// Package retry runs store and graph operations with bounded exponential
// backoff. Only errors the caller classifies as transient are retried.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy is used for relationship transactions and pagination queries.
func DefaultPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts:     maxAttempts,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
	}
}

// Do calls op until it succeeds, returns an error rejected by retryable, the
// attempt budget is spent or ctx is done. The last error is returned as is.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(attempts)))
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, retryable func(error) bool, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, retryable, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
