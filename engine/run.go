package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/weft"
	"github.com/xraph/weft/chain"
	"github.com/xraph/weft/control"
	"github.com/xraph/weft/fault"
	"github.com/xraph/weft/id"
	"github.com/xraph/weft/middleware"
)

// engineOrigin names the engine itself in defects it raises.
const engineOrigin = "engine"

// Exit is the settled outcome of one invocation.
type Exit[A any] struct {
	Kind fault.Kind
	// Value is set on success.
	Value A
	// Err is the typed failure on failure, and the defect's identity on a
	// defect: the raised error or signal itself, *fault.Interrupted or
	// *fault.Composite.
	Err error
	// Defect carries origin and stack for defects raised inside the chain.
	Defect *fault.Defect

	InvocationID id.InvocationID
	Elapsed      time.Duration
}

// Succeeded reports whether the invocation produced a value.
func (e Exit[A]) Succeeded() bool { return e.Kind == fault.KindSuccess }

// Failed reports whether the invocation ended with a typed failure.
func (e Exit[A]) Failed() bool { return e.Kind == fault.KindFailure }

// IsDefect reports whether the invocation ended with a defect.
func (e Exit[A]) IsDefect() bool { return e.Kind == fault.KindDefect }

// Result returns the value, or the zero value and Err.
func (e Exit[A]) Result() (A, error) {
	if e.Kind == fault.KindSuccess {
		return e.Value, nil
	}
	var zero A
	return zero, e.Err
}

// Mapper turns a typed failure into a value. A panic inside the mapper
// settles the invocation as a defect with origin "mapper".
type Mapper[A any] func(err error) A

// Run executes ch for call and waits for it to settle or for ctx to end.
// The chain runs on its own goroutine; when ctx ends first the result is a
// *fault.Interrupted defect and the goroutine finishes on its own.
func Run[A any](ctx context.Context, eng *Engine, ch *chain.Chain, call middleware.Call) Exit[A] {
	return run[A](ctx, eng, ch, call, nil)
}

// Invoke is Run returning (value, error).
func Invoke[A any](ctx context.Context, eng *Engine, ch *chain.Chain, call middleware.Call) (A, error) {
	return run[A](ctx, eng, ch, call, nil).Result()
}

// RunMapped is Run with typed failures passed to mapper, whose result
// becomes the success value. Defects are never mapped.
func RunMapped[A any](ctx context.Context, eng *Engine, ch *chain.Chain, call middleware.Call, mapper Mapper[A]) Exit[A] {
	return run(ctx, eng, ch, call, mapper)
}

// InvokeMapped is RunMapped returning (value, error).
func InvokeMapped[A any](ctx context.Context, eng *Engine, ch *chain.Chain, call middleware.Call, mapper Mapper[A]) (A, error) {
	return run(ctx, eng, ch, call, mapper).Result()
}

func run[A any](ctx context.Context, eng *Engine, ch *chain.Chain, call middleware.Call, mapper Mapper[A]) Exit[A] {
	if call.InvocationID.IsNil() {
		call.InvocationID = id.NewInvocationID()
	}
	start := time.Now()

	if eng.closed.Load() {
		return finish(ctx, eng, call, defectExit[A](call, weft.ErrEngineClosed, start))
	}

	if eng.sem != nil {
		if err := eng.sem.Acquire(ctx, 1); err != nil {
			return finish(ctx, eng, call, interruptedExit[A](ctx, call, start))
		}
		defer eng.sem.Release(1)
	}

	ctx, span := eng.tracer.Start(ctx, "weft.invoke",
		trace.WithAttributes(
			attribute.String("weft.entry", call.Entry),
			attribute.String("weft.kind", call.Kind.String()),
			attribute.String("weft.invocation.id", call.InvocationID.String()),
			attribute.Int("weft.chain.length", ch.Len()),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	eng.extensions.EmitInvocationStarted(ctx, call)

	exit := settle[A](ctx, eng, ch, call, start)
	if exit.Kind == fault.KindFailure && mapper != nil {
		exit = applyMapper(eng, call, exit, mapper)
	}
	exit.Elapsed = time.Since(start)

	span.SetAttributes(attribute.String("weft.outcome", exit.Kind.String()))
	if exit.Err != nil {
		span.RecordError(exit.Err)
		span.SetStatus(codes.Error, exit.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return finish(ctx, eng, call, exit)
}

// finish logs a settled outcome and reports it to extensions.
func finish[A any](ctx context.Context, eng *Engine, call middleware.Call, exit Exit[A]) Exit[A] {
	eng.logOutcome(call, exit.Kind, exit.Err, exit.Defect)
	eng.emit(ctx, call, exit.Kind, exit.Err, exit.Elapsed)
	return exit
}

// mapperOrigin names the failure mapper in defects it raises.
const mapperOrigin = "mapper"

// applyMapper turns a typed failure into a success value. A panicking
// mapper settles the invocation as a defect.
func applyMapper[A any](eng *Engine, call middleware.Call, exit Exit[A], mapper Mapper[A]) (out Exit[A]) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		var stack string
		if eng.config.CaptureStacks {
			stack = string(debug.Stack())
		}
		d := fault.Recovered(v, mapperOrigin, stack)
		out = Exit[A]{
			Kind:         fault.KindDefect,
			Err:          d.Identity(),
			Defect:       d,
			InvocationID: call.InvocationID,
		}
	}()

	return Exit[A]{
		Kind:         fault.KindSuccess,
		Value:        mapper(exit.Err),
		InvocationID: exit.InvocationID,
	}
}

// settle runs the chain on its own goroutine and converts its result.
func settle[A any](ctx context.Context, eng *Engine, ch *chain.Chain, call middleware.Call, start time.Time) Exit[A] {
	container, err := eng.resolver.Container(call.Entry)
	if err != nil {
		return defectExit[A](call, err, start)
	}
	env := chain.Env{
		Resolver:      container,
		Observer:      observer{eng: eng},
		CaptureStacks: eng.config.CaptureStacks,
	}

	done := make(chan chain.Result, 1)
	go func() {
		settled := false
		defer func() {
			if settled {
				return
			}
			// Either a panic escaped the chain (from an observer) or the
			// goroutine ended through runtime.Goexit.
			if v := recover(); v != nil {
				var stack string
				if eng.config.CaptureStacks {
					stack = string(debug.Stack())
				}
				d := fault.Recovered(v, engineOrigin, stack)
				done <- chain.Result{Kind: fault.KindDefect, Err: d.Identity(), Defect: d}
				return
			}
			d := &fault.Defect{Cause: weft.ErrEmptyOutcome, Origin: engineOrigin}
			done <- chain.Result{Kind: fault.KindDefect, Err: weft.ErrEmptyOutcome, Defect: d}
		}()
		res := ch.Run(ctx, call, env)
		settled = true
		done <- res
	}()

	var res chain.Result
	select {
	case res = <-done:
	case <-ctx.Done():
		// Prefer a result that is already there.
		select {
		case res = <-done:
		default:
			return interruptedExit[A](ctx, call, start)
		}
	}

	// The chain stops with ctx's error once ctx ends.
	if res.Kind == fault.KindFailure && ctx.Err() != nil && errors.Is(res.Err, ctx.Err()) {
		return interruptedExit[A](ctx, call, start)
	}

	exit := Exit[A]{
		Kind:         res.Kind,
		Err:          res.Err,
		Defect:       res.Defect,
		InvocationID: call.InvocationID,
	}
	if res.Kind != fault.KindSuccess || res.Value == nil {
		return exit
	}
	v, ok := res.Value.(A)
	if !ok {
		var zero A
		return defectExit[A](call, fmt.Errorf("%T, want %T: %w", res.Value, zero, weft.ErrResultType), start)
	}
	exit.Value = v
	return exit
}

func defectExit[A any](call middleware.Call, err error, start time.Time) Exit[A] {
	return Exit[A]{
		Kind:         fault.KindDefect,
		Err:          err,
		Defect:       &fault.Defect{Cause: err, Origin: engineOrigin},
		InvocationID: call.InvocationID,
		Elapsed:      time.Since(start),
	}
}

func interruptedExit[A any](ctx context.Context, call middleware.Call, start time.Time) Exit[A] {
	return Exit[A]{
		Kind:         fault.KindDefect,
		Err:          &fault.Interrupted{InvocationID: call.InvocationID, Cause: context.Cause(ctx)},
		InvocationID: call.InvocationID,
		Elapsed:      time.Since(start),
	}
}

// logOutcome logs defects. Control signals are routine and logged at
// debug; interruptions at warn.
func (eng *Engine) logOutcome(call middleware.Call, kind fault.Kind, err error, d *fault.Defect) {
	if kind != fault.KindDefect {
		return
	}

	attrs := []any{
		slog.String("entry", call.Entry),
		slog.String("kind", call.Kind.String()),
		slog.String("invocation_id", call.InvocationID.String()),
		slog.String("error", err.Error()),
	}

	if _, ok := control.As(err); ok {
		eng.logger.Debug("invocation signalled", attrs...)
		return
	}
	if errors.Is(err, weft.ErrInterrupted) {
		eng.logger.Warn("invocation interrupted", attrs...)
		return
	}
	if d != nil {
		if d.Origin != "" {
			attrs = append(attrs, slog.String("origin", d.Origin))
		}
		if d.Stack != "" {
			attrs = append(attrs, slog.String("stack", d.Stack))
		}
	}
	eng.logger.Error("invocation defect", attrs...)
}

func (eng *Engine) emit(ctx context.Context, call middleware.Call, kind fault.Kind, err error, elapsed time.Duration) {
	switch kind {
	case fault.KindSuccess:
		eng.extensions.EmitInvocationSucceeded(ctx, call, elapsed)
	case fault.KindFailure:
		eng.extensions.EmitInvocationFailed(ctx, call, err, elapsed)
	default:
		eng.extensions.EmitInvocationDefect(ctx, call, err, elapsed)
	}
}
