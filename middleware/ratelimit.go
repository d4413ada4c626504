package middleware

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/xraph/weft/fault"
)

// ErrRateLimited is the typed failure produced by RateLimit.
var ErrRateLimited = errors.New("weft: rate limited")

// RateLimitFailure is the failure schema of RateLimit.
var RateLimitFailure = fault.Is(ErrRateLimited)

// RateLimit returns non-wrapping middleware that admits calls at rate r
// with bursts of up to burst. Calls beyond the limit fail with
// ErrRateLimited instead of waiting. One limiter is shared by every chain
// the binding is used in.
func RateLimit(r rate.Limit, burst int, opts ...Option) Binding {
	limiter := rate.NewLimiter(r, burst)
	opts = append([]Option{WithFailure(RateLimitFailure)}, opts...)
	d := New("rate-limit", opts...)
	return MustBind(d, func(context.Context, Call) (struct{}, error) {
		if !limiter.Allow() {
			return struct{}{}, ErrRateLimited
		}
		return struct{}{}, nil
	})
}
