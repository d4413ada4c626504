// Package ext defines the extension system for weft.
//
// Extensions are notified of invocation lifecycle events and can react to
// them, for example by recording metrics or writing audit logs. Each
// lifecycle hook is a separate interface so extensions opt in only to the
// events they care about.
//
// # Implementing an Extension
//
//	type SlowCalls struct{ Threshold time.Duration }
//
//	func (e *SlowCalls) Name() string { return "slow-calls" }
//
//	func (e *SlowCalls) OnInvocationSucceeded(ctx context.Context, c middleware.Call, elapsed time.Duration) error {
//	    if elapsed > e.Threshold {
//	        log.Printf("%s %s took %s", c.Kind, c.Entry, elapsed)
//	    }
//	    return nil
//	}
//
// # Invocation Hooks
//
//   - [InvocationStarted]: the invocation was admitted
//   - [InvocationSucceeded]: it settled with a value
//   - [InvocationFailed]: it settled with a typed failure
//   - [InvocationDefect]: it settled with a defect or was interrupted
//
// # Other Hooks
//
//   - [MiddlewareSkipped]: an optional middleware failed and was skipped
//   - [Shutdown]: the engine is shutting down
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
