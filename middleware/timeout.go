package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/weft/fault"
)

// TimeoutError is the typed failure produced by Timeout.
type TimeoutError struct {
	Entry string
	After time.Duration
}

// Error implements error.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("weft: %s timed out after %s", e.Entry, e.After)
}

// Unwrap matches context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// TimeoutFailure is the failure schema of Timeout.
var TimeoutFailure = fault.Of[*TimeoutError]("timeout")

// Timeout returns wrapping middleware that runs the remainder of the chain
// with a deadline of after. The deadline is cooperative: the chain stops
// between steps once it passes, and blocking steps should honour ctx. When
// the remainder ends because the deadline passed, the result is a
// *TimeoutError. A non-positive duration disables the deadline.
func Timeout(after time.Duration) Binding {
	d := NewWrap("timeout", WithFailure(TimeoutFailure))
	return MustBindWrap(d, func(ctx context.Context, c Call, next Next) (any, error) {
		if after <= 0 {
			return next(ctx)
		}

		tctx, cancel := context.WithTimeout(ctx, after)
		defer cancel()

		v, err := next(tctx)
		if err != nil && !fault.IsDefect(err) &&
			errors.Is(err, context.DeadlineExceeded) &&
			errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &TimeoutError{Entry: c.Entry, After: after}
		}
		return v, err
	})
}
