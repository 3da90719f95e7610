package util

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
)

// Retrier calls an operation up to MaxTries times. It is a wrapper around
// "github.com/cenkalti/backoff". By default there is no delay between
// attempts.
type Retrier struct {
	// Maximum number of calls, including the first one.
	MaxTries int
	// Delay policy between attempts. Defaults to no delay.
	Backoff backoff.BackOff
	// ShouldRetry reports whether an error is worth another attempt.
	// A nil ShouldRetry retries every error.
	ShouldRetry func(err error) bool
	// Notify is called after each failed attempt that will be retried.
	Notify func(err error, attempt int)
}

// NewRetrier returns a Retrier which calls an operation at most
// "maxTries" times without delay.
func NewRetrier(maxTries int) *Retrier {
	return &Retrier{MaxTries: maxTries}
}

// RetryError is returned when the operation did not succeed.
// Err is the error returned by the last attempt.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("failed after %d attempt(s): %s", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// Retry calls f until it does not return an error, the error is not
// retryable, the attempts are exhausted or ctx is done.
func (r *Retrier) Retry(ctx context.Context, f func() error) error {
	attempts := 0
	op := func() error {
		if err := ctx.Err(); err != nil {
			return &backoff.PermanentError{Err: err}
		}
		attempts++
		return r.checkErr(f())
	}

	b := backoff.WithContext(r.withTries(), ctx)
	err := backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		if r.Notify != nil {
			r.Notify(err, attempts)
		}
	})
	if err != nil {
		return &RetryError{Attempts: attempts, Err: err}
	}
	return nil
}

// RetryValue is Retry for operations which return a value.
func RetryValue[T any](ctx context.Context, r *Retrier, f func() (T, error)) (T, error) {
	var out T
	err := r.Retry(ctx, func() error {
		v, err := f()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (r *Retrier) checkErr(err error) error {
	switch {
	case err != nil && r.ShouldRetry != nil && !r.ShouldRetry(err):
		return &backoff.PermanentError{Err: err}
	case err != nil:
		return err
	default:
		return nil
	}
}

func (r *Retrier) withTries() backoff.BackOff {
	// backoff.WithMaxRetries treats 0 as "no limit".
	if r.MaxTries <= 1 {
		return &backoff.StopBackOff{}
	}

	b := r.Backoff
	if b == nil {
		b = &backoff.ZeroBackOff{}
	}
	return backoff.WithMaxRetries(b, uint64(r.MaxTries-1))
}
