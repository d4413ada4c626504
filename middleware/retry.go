package middleware

import (
	"context"

	"github.com/xraph/weft/backoff"
	"github.com/xraph/weft/fault"
)

// RetryOption configures Retry.
type RetryOption func(*retryConfig)

type retryConfig struct {
	strategy backoff.Strategy
	when     fault.Schema
}

// WithBackoff sets the delay strategy between attempts.
func WithBackoff(s backoff.Strategy) RetryOption {
	return func(rc *retryConfig) { rc.strategy = s }
}

// RetryOn limits retries to failures matching s. By default every typed
// failure is retried.
func RetryOn(s fault.Schema) RetryOption {
	return func(rc *retryConfig) { rc.when = s }
}

// Retry returns wrapping middleware that reruns the remainder of the chain
// up to maxAttempts times in total while it ends with a typed failure.
// Defects are never retried. The last failure is returned when attempts
// run out; a done ctx during a delay returns ctx's error.
//
// Non-wrapping middleware in the remainder run again on every attempt.
func Retry(maxAttempts int, opts ...RetryOption) Binding {
	rc := retryConfig{
		strategy: backoff.DefaultStrategy(),
		when:     fault.Any(),
	}
	for _, opt := range opts {
		opt(&rc)
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	d := NewWrap("retry", WithCatches(rc.when))
	return MustBindWrap(d, func(ctx context.Context, _ Call, next Next) (any, error) {
		var (
			v   any
			err error
		)
		for attempt := 1; ; attempt++ {
			v, err = next(ctx)
			if err == nil || attempt >= maxAttempts || !rc.when.Match(err) {
				return v, err
			}
			if werr := backoff.Wait(ctx, rc.strategy, attempt); werr != nil {
				return nil, werr
			}
		}
	})
}
