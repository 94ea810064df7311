package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetry marks errors which are worth to retry. See Retryable.
var ErrRetry = errors.New("retry")

// ErrGaveUp is returned by a Backoff when it allows no more retries.
var ErrGaveUp = errors.New("gave up retrying")

type retryable struct {
	err error
}

func (r *retryable) Error() string        { return r.err.Error() }
func (r *retryable) Unwrap() error        { return r.err }
func (r *retryable) Is(target error) bool { return target == ErrRetry }

// Retryable marks err as worth to retry. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryable{err: err}
}

// Backoff is a (blocking) function returns when to retry.
//
// # Args
//
// - context: context. If context is canceled, Backoff should return ctx.Err().
//
// # Returns
//
// - error: nil if retry, non-nil if not.
type Backoff func(context.Context) error

// StaticBackoff returns a Backoff function that waits for a fixed interval.
func StaticBackoff(interval time.Duration) Backoff {
	return ExponentialBackoff(interval, 1, 0)
}

// ExponentialBackoff returns a Backoff function that waits with exponential backoff.
//
// # Args
//
// - initialInterval: initial interval.
//
// - r: multiplier of interval.
//
// - max: upper limit of interval. Zero or negative means no limit.
//
// # Returns
//
// Backoff function.
// For N-th call, it waits for `min(initialInterval * r^N, max)` or context to be done.
func ExponentialBackoff(initialInterval time.Duration, r float64, max time.Duration) Backoff {
	interval := initialInterval
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			interval = time.Duration(float64(interval) * r)
			if 0 < max && max < interval {
				interval = max
			}
			return nil
		}
	}
}

// Limit allows b at most n times. After that, it returns ErrGaveUp.
func Limit(n int, b Backoff) Backoff {
	count := 0
	return func(ctx context.Context) error {
		if n <= count {
			return ErrGaveUp
		}
		count += 1
		return b(ctx)
	}
}

// Blocking calls f until it returns nil or non-retry error.
//
// f is called once at first without waiting.
// When f returns an error marked by Retryable, Blocking waits with b and calls f again.
//
// # Returns
//
// - T: last return value of f
//
// - error: the last error of f, without the retry mark.
// If ctx is done while waiting, it is joined with ctx.Err().
func Blocking[T any](ctx context.Context, b Backoff, f func() (T, error)) (T, error) {
	for {
		last, err := f()
		if err == nil {
			return last, nil
		}

		var r *retryable
		if !errors.As(err, &r) {
			return last, err
		}

		if berr := b(ctx); berr != nil {
			if errors.Is(berr, ErrGaveUp) {
				return last, r.err
			}
			return last, errors.Join(r.err, berr)
		}
	}
}
