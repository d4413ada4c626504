package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for weft metrics.
const meterName = "github.com/xraph/weft"

// Metrics returns wrapping middleware that records the duration and
// outcome of the remainder of the chain using the global MeterProvider.
//
// Instruments:
//   - weft.middleware.duration (Float64Histogram): seconds, with
//     attributes entry, kind, outcome
//   - weft.middleware.executions (Int64Counter): with attributes entry,
//     kind, outcome
func Metrics() Binding {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Binding {
	// Instrument errors yield noop instruments.
	duration, _ := meter.Float64Histogram(
		"weft.middleware.duration",
		metric.WithDescription("Duration of chain execution in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"weft.middleware.executions",
		metric.WithDescription("Total number of chain executions"),
		metric.WithUnit("{execution}"),
	)

	d := NewWrap("metrics")
	return MustBindWrap(d, func(ctx context.Context, c Call, next Next) (any, error) {
		start := time.Now()
		v, err := next(ctx)
		elapsed := time.Since(start).Seconds()

		attrs := metric.WithAttributes(
			attribute.String("entry", c.Entry),
			attribute.String("kind", c.Kind.String()),
			attribute.String("outcome", outcome(err)),
		)
		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return v, err
	})
}
