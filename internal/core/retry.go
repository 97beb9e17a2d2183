// AngelaMos | 2026
// retry.go

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	//nolint:gosec // G115: attempts is at least 1
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)
}

// RetryOnConflict reruns fn while it fails with ErrTransactionConflict, up to
// MaxAttempts runs in total. Any other error stops immediately. A conflict
// that outlives every attempt is reported as ErrStoreUnavailable.
func RetryOnConflict(ctx context.Context, p RetryPolicy, fn func() error) error {
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrTransactionConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, p.backOff(ctx))

	if err != nil && errors.Is(err, ErrTransactionConflict) {
		return fmt.Errorf(
			"%w: gave up after %d attempts: %w",
			ErrStoreUnavailable,
			attempt,
			err,
		)
	}

	return err
}

// dialPolicy covers a dependency that is still starting, as in a fresh
// compose stack.
var dialPolicy = RetryPolicy{
	MaxAttempts:     6,
	InitialInterval: 250 * time.Millisecond,
	MaxInterval:     4 * time.Second,
}

// awaitReady pings until it succeeds or the policy runs out. Each ping gets
// its own deadline.
func awaitReady(
	ctx context.Context,
	p RetryPolicy,
	timeout time.Duration,
	ping func(ctx context.Context) error,
) error {
	return backoff.Retry(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := ping(pingCtx)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, p.backOff(ctx))
}
