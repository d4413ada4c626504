package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/weft/control"
	"github.com/xraph/weft/id"
	mw "github.com/xraph/weft/middleware"
)

func setupTestTracer() (*tracetest.SpanRecorder, trace.Tracer) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := tp.Tracer("test")
	return sr, tracer
}

func newTestCall() mw.Call {
	return mw.Call{
		Kind:         mw.KindPage,
		Entry:        "profile",
		InvocationID: id.NewInvocationID(),
		Params:       map[string]string{"user": "42"},
	}
}

func succeed(context.Context) (any, error) { return "ok", nil }

func TestTracing_CreatesSpan(t *testing.T) {
	sr, tracer := setupTestTracer()
	b := mw.TracingWithTracer(tracer)

	v, err := b.Wrap(context.Background(), newTestCall(), succeed)
	if err != nil || v != "ok" {
		t.Fatalf("unexpected result: %v, %v", v, err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "weft.chain.execute" {
		t.Errorf("expected span name %q, got %q", "weft.chain.execute", spans[0].Name())
	}
}

func TestTracing_SpanAttributes(t *testing.T) {
	sr, tracer := setupTestTracer()
	b := mw.TracingWithTracer(tracer)
	c := newTestCall()

	_, _ = b.Wrap(context.Background(), c, succeed)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	expected := map[string]string{
		"weft.entry":         "profile",
		"weft.kind":          "page",
		"weft.invocation.id": c.InvocationID.String(),
		"weft.outcome":       "ok",
	}

	attrMap := make(map[string]string)
	for _, a := range spans[0].Attributes() {
		if a.Value.Type() == attribute.STRING {
			attrMap[string(a.Key)] = a.Value.AsString()
		}
	}

	for key, want := range expected {
		got, found := attrMap[key]
		if !found {
			t.Errorf("missing attribute %q", key)
			continue
		}
		if got != want {
			t.Errorf("attribute %q = %v, want %v", key, got, want)
		}
	}
}

func TestTracing_Success_SetsOkStatus(t *testing.T) {
	sr, tracer := setupTestTracer()
	b := mw.TracingWithTracer(tracer)

	_, _ = b.Wrap(context.Background(), newTestCall(), succeed)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("expected status Ok, got %v", spans[0].Status().Code)
	}
}

func TestTracing_Error_SetsErrorStatus(t *testing.T) {
	sr, tracer := setupTestTracer()
	b := mw.TracingWithTracer(tracer)

	handlerErr := errors.New("handler failed")
	_, err := b.Wrap(context.Background(), newTestCall(), func(context.Context) (any, error) {
		return nil, handlerErr
	})
	if !errors.Is(err, handlerErr) {
		t.Fatalf("expected handler error, got %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected status Error, got %v", spans[0].Status().Code)
	}
	if spans[0].Status().Description != "handler failed" {
		t.Errorf("expected status description %q, got %q", "handler failed", spans[0].Status().Description)
	}

	found := false
	for _, ev := range spans[0].Events() {
		if ev.Name == "exception" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected 'exception' event to be recorded on span")
	}
}

func TestTracing_Defect_Outcome(t *testing.T) {
	sr, tracer := setupTestTracer()
	b := mw.TracingWithTracer(tracer)

	_, err := b.Wrap(context.Background(), newTestCall(), func(context.Context) (any, error) {
		return nil, control.NotFound()
	})
	if !control.IsNotFound(err) {
		t.Fatalf("expected not-found signal, got %v", err)
	}

	var outcome string
	for _, a := range sr.Ended()[0].Attributes() {
		if a.Key == "weft.outcome" {
			outcome = a.Value.AsString()
		}
	}
	if outcome != "defect" {
		t.Errorf("weft.outcome = %q, want defect", outcome)
	}
}

func TestTracing_PropagatesContext(t *testing.T) {
	sr, tracer := setupTestTracer()
	b := mw.TracingWithTracer(tracer)

	var nextSpanCtx trace.SpanContext
	_, _ = b.Wrap(context.Background(), newTestCall(), func(ctx context.Context) (any, error) {
		nextSpanCtx = trace.SpanFromContext(ctx).SpanContext()
		return nil, nil
	})

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if !nextSpanCtx.IsValid() {
		t.Error("expected valid span context in next, got invalid")
	}
	if nextSpanCtx.TraceID() != spans[0].SpanContext().TraceID() {
		t.Error("next span context trace ID does not match middleware span")
	}
}

func TestTracing_DefaultNoopSafe(t *testing.T) {
	b := mw.Tracing()

	called := false
	_, err := b.Wrap(context.Background(), newTestCall(), func(context.Context) (any, error) {
		called = true
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("next was not called")
	}
}
