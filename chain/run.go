package chain

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/xraph/weft/capability"
	"github.com/xraph/weft/fault"
	"github.com/xraph/weft/middleware"
)

// terminalOrigin names the terminal computation in defects.
const terminalOrigin = "handler"

// Env supplies what a run needs besides the call itself.
type Env struct {
	Resolver      Resolver
	Observer      Observer
	CaptureStacks bool
}

// Result is the settled outcome of one run.
type Result struct {
	Kind  fault.Kind
	Value any
	// Err is the typed failure, or the identity of the defect.
	Err error
	// Defect carries the origin and stack of a defect.
	Defect *fault.Defect
}

// Run executes the chain for one call. The registry in ctx is replaced by
// an empty one, so nothing from an enclosing invocation leaks in.
//
// Every binding is resolved before the first step runs, so a run keeps the
// implementations it started with even if the resolver is disposed or
// replaced meanwhile. A resolution error is raised when its descriptor is
// reached.
func (c *Chain) Run(ctx context.Context, call middleware.Call, env Env) Result {
	r := &run{chain: c, call: call, env: env, bindings: make([]resolved, len(c.descs))}
	for i, d := range c.descs {
		r.bindings[i].b, r.bindings[i].err = env.Resolver.Resolve(d)
	}
	ctx = capability.WithRegistry(ctx, nil)

	v, err := r.exec(ctx, 0)

	if d := r.current(); d != nil {
		return Result{Kind: fault.KindDefect, Err: d.Identity(), Defect: d}
	}
	if err != nil {
		return Result{Kind: fault.KindFailure, Err: err}
	}
	return Result{Kind: fault.KindSuccess, Value: v}
}

// resolved is the outcome of looking up one descriptor's binding.
type resolved struct {
	b   middleware.Binding
	err error
}

// run is the state of one invocation. It is never shared between
// invocations.
type run struct {
	chain    *Chain
	call     middleware.Call
	env      Env
	bindings []resolved

	mu       sync.Mutex
	defect   *fault.Defect
	recorded []*fault.Defect
	parallel atomic.Bool
}

// exec runs descriptors from index i to the end, then the terminal.
// Consecutive non-wrapping descriptors are handled in this loop; only a
// wrapping descriptor recurses, through the next it is given.
func (r *run) exec(ctx context.Context, i int) (any, error) {
	for ; i < len(r.chain.descs); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := r.chain.descs[i]

		b, err := r.resolve(i)
		if err != nil {
			return nil, err
		}

		if d.IsWrap() {
			return r.wrap(ctx, d, b, i+1)
		}

		v, err := r.plain(ctx, d, b)
		if err != nil {
			if fault.IsDefect(err) {
				return nil, err
			}
			if d.IsOptional() {
				if r.env.Observer != nil {
					r.env.Observer.MiddlewareSkipped(ctx, r.call, d, err)
				}
				continue
			}
			return nil, err
		}
		if k := d.Provides(); k != nil {
			ctx = capability.Inject(ctx, k, v)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.terminal(ctx)
}

func (r *run) resolve(i int) (middleware.Binding, error) {
	res := r.bindings[i]
	if res.err != nil {
		return middleware.Binding{}, r.record(fault.Escalate(res.err, r.chain.descs[i].String()))
	}
	return res.b, nil
}

func (r *run) plain(ctx context.Context, d *middleware.Descriptor, b middleware.Binding) (v any, err error) {
	defer r.recoverInto(&err, d.String())
	v, err = b.Run(ctx, r.call)
	return v, r.classify(err, d.String())
}

func (r *run) wrap(ctx context.Context, d *middleware.Descriptor, b middleware.Binding, rest int) (v any, err error) {
	var active atomic.Int32
	next := func(ctx context.Context) (any, error) {
		if active.Add(1) > 1 {
			r.parallel.Store(true)
		}
		defer active.Add(-1)
		return r.exec(ctx, rest)
	}

	defer r.recoverInto(&err, d.String())
	v, err = b.Wrap(ctx, r.call, next)
	err = r.classify(err, d.String())

	// A wrapping implementation cannot hide a defect from its callers.
	if cur := r.current(); cur != nil {
		return nil, cur
	}
	return v, err
}

func (r *run) terminal(ctx context.Context) (v any, err error) {
	defer r.recoverInto(&err, terminalOrigin)
	v, err = r.chain.terminal(ctx, r.call)
	return v, r.classify(err, terminalOrigin)
}

// classify turns returned errors that are fatal by nature into recorded
// defects. Defects already recorded pass through unchanged.
func (r *run) classify(err error, origin string) error {
	if err == nil {
		return nil
	}
	var d *fault.Defect
	if errors.As(err, &d) {
		if r.known(d) {
			return err
		}
		return r.record(d)
	}
	if fault.MustEscalate(err) {
		return r.record(fault.Escalate(err, origin))
	}
	return err
}

// recoverInto converts a panic into a recorded defect assigned to *err.
func (r *run) recoverInto(err *error, origin string) {
	v := recover()
	if v == nil {
		return
	}
	if d, ok := v.(*fault.Defect); ok && r.known(d) {
		*err = d
		return
	}
	var stack string
	if r.env.CaptureStacks {
		stack = string(debug.Stack())
	}
	d := fault.Recovered(v, origin, stack)
	if sig, ok := v.(error); ok && fault.MustEscalate(sig) {
		d = fault.Escalate(sig, origin)
		d.Stack = stack
	}
	*err = r.record(d)
}

func (r *run) known(d *fault.Defect) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.recorded {
		if k == d {
			return true
		}
	}
	return false
}

// record stores d as the invocation's defect. A second, different defect
// is combined with the first.
func (r *run) record(d *fault.Defect) *fault.Defect {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recorded = append(r.recorded, d)
	switch {
	case r.defect == nil:
		r.defect = d
	case !sameError(r.defect.Identity(), d.Identity()):
		var combined *fault.Composite
		if r.parallel.Load() {
			combined = fault.Parallel(r.defect.Identity(), d.Identity())
		} else {
			combined = fault.Sequential(r.defect.Identity(), d.Identity())
		}
		r.defect = &fault.Defect{Cause: combined, Origin: d.Origin, Stack: d.Stack}
		r.recorded = append(r.recorded, r.defect)
	}
	return d
}

func (r *run) current() *fault.Defect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defect
}

// sameError compares errors by identity without panicking on
// incomparable dynamic types.
func sameError(a, b error) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
