// Package middleware describes middleware and binds implementations to
// them.
//
// A [Descriptor] is the metadata of one middleware: whether it wraps the
// rest of the chain, whether its failures are optional, the capability it
// provides and the failures it may produce. Behaviour lives in a
// [Binding], installed in a service container and resolved per call.
//
//	var Auth = middleware.New("auth",
//	    middleware.WithProvides(UserKey),
//	    middleware.WithFailure(fault.Of[*AuthError]("auth")),
//	)
//
//	container.MustInstall(middleware.MustBind(Auth, func(ctx context.Context, c middleware.Call) (*User, error) {
//	    return lookup(c.Params["session"])
//	}))
//
// Non-wrapping middleware run to completion before the remainder of the
// chain starts. Wrapping middleware receive the remainder as [Next] and
// decide whether and when to run it:
//
//	middleware.MustBindWrap(Audit, func(ctx context.Context, c middleware.Call, next middleware.Next) (any, error) {
//	    // before
//	    v, err := next(ctx)
//	    // after
//	    return v, err
//	})
//
// # Built-in Middleware
//
// Each built-in returns a ready [Binding]; put its Descriptor in the chain
// and install the binding in the container.
//
//   - [Logging] logs entry, kind, duration and outcome of the remainder
//   - [Tracing] wraps the remainder in an OpenTelemetry span
//   - [Metrics] records duration and outcome counters
//   - [Timeout] bounds the remainder with a deadline
//   - [Retry] reruns the remainder after typed failures
//   - [RateLimit] rejects calls beyond a token-bucket rate
//   - [Value] provides a capability from a function
//
// Wrapping implementations see defects from next as errors. They may log
// or annotate them, but whatever they return, the invocation still settles
// with the defect. Use fault.IsDefect to leave them alone.
package middleware
