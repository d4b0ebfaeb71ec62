// Package retry provides a bounded retry combinator.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// Backoff returns the delay after the given failed attempt (1-based).
	// A nil Backoff retries immediately.
	Backoff func(attempt int) time.Duration
	// IsRetryable reports whether err is worth another attempt.
	// A nil IsRetryable retries every error.
	IsRetryable func(err error) bool
	// OnRetry is called before sleeping for delay after a failed attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Exponential returns a backoff function yielding min(base*2^attempt, ceiling).
func Exponential(base, ceiling time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for range attempt {
			d *= 2
			if d >= ceiling {
				return ceiling
			}
		}
		return min(d, ceiling)
	}
}

// Do runs op until it succeeds, returns a non-retryable error, or the policy runs out
// of attempts. The last error is returned unchanged, along with the value op returned
// with it.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := op(ctx, attempt)
		if err != nil && p.IsRetryable != nil && !p.IsRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	var notify backoff.Notify
	if p.OnRetry != nil {
		notify = func(err error, delay time.Duration) {
			p.OnRetry(attempt, err, delay)
		}
	}

	return backoff.RetryNotifyWithData(operation, backoff.WithContext(&schedule{policy: p}, ctx), notify)
}

// schedule adapts a Policy to backoff.BackOff.
type schedule struct {
	policy Policy
	failed int
}

func (s *schedule) NextBackOff() time.Duration {
	s.failed++
	if s.failed >= max(s.policy.MaxAttempts, 1) {
		return backoff.Stop
	}
	if s.policy.Backoff == nil {
		return 0
	}
	return s.policy.Backoff(s.failed)
}

func (s *schedule) Reset() {
	s.failed = 0
}
