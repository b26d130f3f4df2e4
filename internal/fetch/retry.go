// Package fetch wraps outbound HTTP calls with a retry-with-backoff policy
// and the error taxonomy the cache layer relies on.
package fetch

import (
	"context"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultTimeout     = 30 * time.Second
)

// Policy decides whether a failed attempt is retried and after how long.
// It is pure: transport concerns live in Do and Client.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Timeout     time.Duration // per attempt
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Timeout:     DefaultTimeout,
	}
}

// Decide returns whether the given attempt (1-based) should be retried after
// err, and the delay before the next attempt. Backoff is linear in the
// attempt number: BaseDelay * attempt.
func (p Policy) Decide(attempt int, err error) (bool, time.Duration) {
	if attempt >= p.MaxAttempts {
		return false, 0
	}
	if !Retryable(err) {
		return false, 0
	}
	return true, p.BaseDelay * time.Duration(attempt)
}

// Do runs fn under the retry policy. Each attempt gets its own timeout
// context. An offline probe result or caller cancellation aborts
// immediately; exhausting all attempts on retryable errors yields an
// ExhaustedError wrapping the last one.
func Do[T any](ctx context.Context, p Policy, online func() bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		if online != nil && !online() {
			return zero, ErrOffline
		}

		attemptCtx := ctx
		cancel := func() {}
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		value, err := fn(attemptCtx)
		cancel()

		if err == nil {
			return value, nil
		}
		if ctx.Err() != nil {
			// Caller-initiated abort, not a server failure.
			return zero, ctx.Err()
		}

		retry, delay := p.Decide(attempt, err)
		if !retry {
			if Retryable(err) {
				return zero, &ExhaustedError{Attempts: attempt, Err: err}
			}
			return zero, err
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
