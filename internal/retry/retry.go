// Package retry wraps outbound provider calls in a bounded
// exponential-backoff policy. Transient failures (transport errors and
// 5xx-equivalent responses) are retried; everything else is permanent.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/minber-ai/minber/internal/core"
)

// Policy controls how an operation is retried.
type Policy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy returns the policy applied to provider and store calls:
// two retries with exponential backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Do runs operation under the policy. A ProviderError that is not
// retryable stops the attempts immediately.
func Do(ctx context.Context, policy Policy, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		var pe *core.ProviderError
		if errors.As(err, &pe) && !pe.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, policy.MaxRetries), ctx))
}

// DoWithResult runs operation under the policy and returns its result.
func DoWithResult[T any](ctx context.Context, policy Policy, operation func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, policy, func() error {
		var opErr error
		result, opErr = operation()
		return opErr
	})
	return result, err
}
