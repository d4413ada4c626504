// Package ext defines the extension system for weft.
// Extensions are notified of invocation lifecycle events (started,
// succeeded, failed, defect, middleware skipped) and can react to them.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/weft/middleware"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Invocation lifecycle hooks
// ──────────────────────────────────────────────────

// InvocationStarted is called when an invocation is admitted and before
// its chain starts.
type InvocationStarted interface {
	OnInvocationStarted(ctx context.Context, c middleware.Call) error
}

// InvocationSucceeded is called after an invocation settles with a value.
// Failures substituted by a mapper count as successes.
type InvocationSucceeded interface {
	OnInvocationSucceeded(ctx context.Context, c middleware.Call, elapsed time.Duration) error
}

// InvocationFailed is called after an invocation settles with a typed
// failure.
type InvocationFailed interface {
	OnInvocationFailed(ctx context.Context, c middleware.Call, err error, elapsed time.Duration) error
}

// InvocationDefect is called after an invocation settles with a defect,
// including control signals and interruptions.
type InvocationDefect interface {
	OnInvocationDefect(ctx context.Context, c middleware.Call, err error, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Chain hooks
// ──────────────────────────────────────────────────

// MiddlewareSkipped is called when an optional middleware fails and the
// chain continues without its capability.
type MiddlewareSkipped interface {
	OnMiddlewareSkipped(ctx context.Context, c middleware.Call, d *middleware.Descriptor, err error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called when the engine shuts down.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
