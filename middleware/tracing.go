package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for weft tracing.
const tracerName = "github.com/xraph/weft"

// Tracing returns wrapping middleware that runs the remainder of the chain
// inside an OpenTelemetry span, using the global TracerProvider.
//
// Span attributes: weft.entry, weft.kind, weft.invocation.id and, once the
// remainder settles, weft.outcome ("ok", "failure" or "defect"). Failures
// and defects set the span status to codes.Error.
func Tracing() Binding {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Binding {
	d := NewWrap("tracing")
	return MustBindWrap(d, func(ctx context.Context, c Call, next Next) (any, error) {
		ctx, span := tracer.Start(ctx, "weft.chain.execute",
			trace.WithAttributes(
				attribute.String("weft.entry", c.Entry),
				attribute.String("weft.kind", c.Kind.String()),
				attribute.String("weft.invocation.id", c.InvocationID.String()),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		v, err := next(ctx)
		span.SetAttributes(attribute.String("weft.outcome", outcome(err)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return v, err
	})
}
