package ext_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/xraph/weft/ext"
	"github.com/xraph/weft/middleware"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	mu    sync.Mutex
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) record(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, s)
}

func (e *allHooksExt) OnInvocationStarted(_ context.Context, _ middleware.Call) error {
	e.record("OnInvocationStarted")
	return nil
}

func (e *allHooksExt) OnInvocationSucceeded(_ context.Context, _ middleware.Call, _ time.Duration) error {
	e.record("OnInvocationSucceeded")
	return nil
}

func (e *allHooksExt) OnInvocationFailed(_ context.Context, _ middleware.Call, _ error, _ time.Duration) error {
	e.record("OnInvocationFailed")
	return nil
}

func (e *allHooksExt) OnInvocationDefect(_ context.Context, _ middleware.Call, _ error, _ time.Duration) error {
	e.record("OnInvocationDefect")
	return nil
}

func (e *allHooksExt) OnMiddlewareSkipped(_ context.Context, _ middleware.Call, _ *middleware.Descriptor, _ error) error {
	e.record("OnMiddlewareSkipped")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.record("OnShutdown")
	return nil
}

// startOnlyExt only implements InvocationStarted.
type startOnlyExt struct {
	calls []string
}

func (e *startOnlyExt) Name() string { return "start-only" }

func (e *startOnlyExt) OnInvocationStarted(_ context.Context, _ middleware.Call) error {
	e.calls = append(e.calls, "OnInvocationStarted")
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnInvocationStarted(_ context.Context, _ middleware.Call) error {
	return errors.New("boom")
}

func (e *failingExt) OnShutdown(_ context.Context) error {
	return errors.New("shutdown boom")
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	r.Register(&allHooksExt{})

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "all-hooks" {
		t.Fatalf("expected name 'all-hooks', got %q", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	so := &startOnlyExt{}
	r.Register(all)
	r.Register(so)

	ctx := context.Background()
	c := middleware.Call{Kind: middleware.KindPage, Entry: "home"}

	r.EmitInvocationStarted(ctx, c)
	if len(all.calls) != 1 || len(so.calls) != 1 {
		t.Fatalf("expected both called once, got all=%v so=%v", all.calls, so.calls)
	}

	r.EmitInvocationSucceeded(ctx, c, time.Millisecond)
	if len(all.calls) != 2 || all.calls[1] != "OnInvocationSucceeded" {
		t.Fatalf("all: expected OnInvocationSucceeded as 2nd, got %v", all.calls)
	}
	if len(so.calls) != 1 {
		t.Fatalf("so: should still have 1 call, got %v", so.calls)
	}
}

func TestRegistry_AllHooksFire(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	c := middleware.Call{Kind: middleware.KindAction, Entry: "save"}

	r.EmitInvocationStarted(ctx, c)
	r.EmitMiddlewareSkipped(ctx, c, middleware.New("session"), errors.New("no cookie"))
	r.EmitInvocationSucceeded(ctx, c, time.Second)
	r.EmitInvocationFailed(ctx, c, errors.New("fail"), time.Second)
	r.EmitInvocationDefect(ctx, c, errors.New("defect"), time.Second)
	r.EmitShutdown(ctx)

	expected := []string{
		"OnInvocationStarted", "OnMiddlewareSkipped", "OnInvocationSucceeded",
		"OnInvocationFailed", "OnInvocationDefect", "OnShutdown",
	}
	if diff := cmp.Diff(expected, all.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	var buf bytes.Buffer
	r := ext.NewRegistry(slog.New(slog.NewTextHandler(&buf, nil)))
	all := &allHooksExt{}

	// Register failing first, then all-hooks. Both should be called.
	r.Register(&failingExt{})
	r.Register(all)

	r.EmitInvocationStarted(context.Background(), middleware.Call{})

	if len(all.calls) != 1 || all.calls[0] != "OnInvocationStarted" {
		t.Fatalf("all: expected [OnInvocationStarted] despite failing ext, got %v", all.calls)
	}
	out := buf.String()
	if !strings.Contains(out, "extension hook error") || !strings.Contains(out, "extension=failing") {
		t.Errorf("expected hook error log, got:\n%s", out)
	}
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := ext.NewRegistry(nil)
	ctx := context.Background()
	c := middleware.Call{}

	// None of these should panic or error.
	r.EmitInvocationStarted(ctx, c)
	r.EmitInvocationSucceeded(ctx, c, time.Second)
	r.EmitInvocationFailed(ctx, c, errors.New("x"), time.Second)
	r.EmitInvocationDefect(ctx, c, errors.New("x"), time.Second)
	r.EmitMiddlewareSkipped(ctx, c, middleware.New("x"), errors.New("x"))
	r.EmitShutdown(ctx)
}

func TestRegistry_ConcurrentEmit(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.EmitInvocationStarted(context.Background(), middleware.Call{})
		}()
	}
	wg.Wait()

	if len(all.calls) != 16 {
		t.Errorf("expected 16 calls, got %d", len(all.calls))
	}
}
