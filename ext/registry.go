package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/weft/middleware"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time.
type invocationStartedEntry struct {
	name string
	hook InvocationStarted
}

type invocationSucceededEntry struct {
	name string
	hook InvocationSucceeded
}

type invocationFailedEntry struct {
	name string
	hook InvocationFailed
}

type invocationDefectEntry struct {
	name string
	hook InvocationDefect
}

type middlewareSkippedEntry struct {
	name string
	hook MiddlewareSkipped
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Register is not safe for concurrent use; register everything before the
// first emit. Emits may run concurrently.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	invocationStarted   []invocationStartedEntry
	invocationSucceeded []invocationSucceededEntry
	invocationFailed    []invocationFailedEntry
	invocationDefect    []invocationDefectEntry
	middlewareSkipped   []middlewareSkippedEntry
	shutdown            []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(InvocationStarted); ok {
		r.invocationStarted = append(r.invocationStarted, invocationStartedEntry{name, h})
	}
	if h, ok := e.(InvocationSucceeded); ok {
		r.invocationSucceeded = append(r.invocationSucceeded, invocationSucceededEntry{name, h})
	}
	if h, ok := e.(InvocationFailed); ok {
		r.invocationFailed = append(r.invocationFailed, invocationFailedEntry{name, h})
	}
	if h, ok := e.(InvocationDefect); ok {
		r.invocationDefect = append(r.invocationDefect, invocationDefectEntry{name, h})
	}
	if h, ok := e.(MiddlewareSkipped); ok {
		r.middlewareSkipped = append(r.middlewareSkipped, middlewareSkippedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Invocation event emitters
// ──────────────────────────────────────────────────

// EmitInvocationStarted notifies all extensions that implement InvocationStarted.
func (r *Registry) EmitInvocationStarted(ctx context.Context, c middleware.Call) {
	for _, e := range r.invocationStarted {
		if err := e.hook.OnInvocationStarted(ctx, c); err != nil {
			r.logHookError("OnInvocationStarted", e.name, err)
		}
	}
}

// EmitInvocationSucceeded notifies all extensions that implement InvocationSucceeded.
func (r *Registry) EmitInvocationSucceeded(ctx context.Context, c middleware.Call, elapsed time.Duration) {
	for _, e := range r.invocationSucceeded {
		if err := e.hook.OnInvocationSucceeded(ctx, c, elapsed); err != nil {
			r.logHookError("OnInvocationSucceeded", e.name, err)
		}
	}
}

// EmitInvocationFailed notifies all extensions that implement InvocationFailed.
func (r *Registry) EmitInvocationFailed(ctx context.Context, c middleware.Call, failure error, elapsed time.Duration) {
	for _, e := range r.invocationFailed {
		if err := e.hook.OnInvocationFailed(ctx, c, failure, elapsed); err != nil {
			r.logHookError("OnInvocationFailed", e.name, err)
		}
	}
}

// EmitInvocationDefect notifies all extensions that implement InvocationDefect.
func (r *Registry) EmitInvocationDefect(ctx context.Context, c middleware.Call, defect error, elapsed time.Duration) {
	for _, e := range r.invocationDefect {
		if err := e.hook.OnInvocationDefect(ctx, c, defect, elapsed); err != nil {
			r.logHookError("OnInvocationDefect", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Chain event emitters
// ──────────────────────────────────────────────────

// EmitMiddlewareSkipped notifies all extensions that implement MiddlewareSkipped.
func (r *Registry) EmitMiddlewareSkipped(ctx context.Context, c middleware.Call, d *middleware.Descriptor, failure error) {
	for _, e := range r.middlewareSkipped {
		if err := e.hook.OnMiddlewareSkipped(ctx, c, d, failure); err != nil {
			r.logHookError("OnMiddlewareSkipped", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks never reach the invocation.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
