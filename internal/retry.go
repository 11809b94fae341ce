package internal

import (
	"context"
	"fmt"
	"time"
)

// retryPolicy bounds reservation store calls: attempts in total, with the
// delay doubling after every failure and each attempt limited by timeout.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
	timeout  time.Duration
}

// errPermanent marks an error that must not be retried.
type errPermanent struct {
	err error
}

func (e errPermanent) Error() string { return e.err.Error() }
func (e errPermanent) Unwrap() error { return e.err }

func permanent(err error) error {
	return errPermanent{err: err}
}

func (r retryPolicy) do(ctx context.Context, operation string, call func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	attempts := r.attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := r.backoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = r.attempt(ctx, call)
		if err == nil {
			return nil
		}
		if p, ok := err.(errPermanent); ok {
			return p.err
		}
		if attempt == attempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, operation, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrStoreUnavailable, operation, attempts, err)
}

func (r retryPolicy) attempt(ctx context.Context, call func(ctx context.Context) error) error {
	if r.timeout <= 0 {
		return call(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return call(ctx)
}
