package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/weft/ext"
	"github.com/xraph/weft/middleware"
)

// meterName is the instrumentation scope of the extension's instruments.
const meterName = "github.com/xraph/weft/observability"

// Compile-time interface checks.
var (
	_ ext.Extension           = (*MetricsExtension)(nil)
	_ ext.InvocationStarted   = (*MetricsExtension)(nil)
	_ ext.InvocationSucceeded = (*MetricsExtension)(nil)
	_ ext.InvocationFailed    = (*MetricsExtension)(nil)
	_ ext.InvocationDefect    = (*MetricsExtension)(nil)
	_ ext.MiddlewareSkipped   = (*MetricsExtension)(nil)
)

// MetricsExtension records engine-wide invocation metrics with
// OpenTelemetry. Register it with engine.WithExtension to track started,
// succeeded, failed and defect counts, invocation duration and skipped
// optional middleware.
//
// Counters carry the attributes entry and kind; the skipped counter also
// carries middleware.
type MetricsExtension struct {
	Started   metric.Int64Counter
	Succeeded metric.Int64Counter
	Failed    metric.Int64Counter
	Defect    metric.Int64Counter
	Skipped   metric.Int64Counter
	Duration  metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension on the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. Instrument creation errors yield noop instruments.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}
	m.Started, _ = meter.Int64Counter("weft.invocation.started",
		metric.WithDescription("Invocations admitted by the engine"),
		metric.WithUnit("{invocation}"))
	m.Succeeded, _ = meter.Int64Counter("weft.invocation.succeeded",
		metric.WithDescription("Invocations that settled with a value"),
		metric.WithUnit("{invocation}"))
	m.Failed, _ = meter.Int64Counter("weft.invocation.failed",
		metric.WithDescription("Invocations that settled with a typed failure"),
		metric.WithUnit("{invocation}"))
	m.Defect, _ = meter.Int64Counter("weft.invocation.defect",
		metric.WithDescription("Invocations that settled with a defect"),
		metric.WithUnit("{invocation}"))
	m.Skipped, _ = meter.Int64Counter("weft.middleware.skipped",
		metric.WithDescription("Optional middleware failures swallowed by the chain"),
		metric.WithUnit("{middleware}"))
	m.Duration, _ = meter.Float64Histogram("weft.invocation.duration",
		metric.WithDescription("Duration of settled invocations in seconds"),
		metric.WithUnit("s"))
	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func callAttrs(c middleware.Call) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("entry", c.Entry),
		attribute.String("kind", c.Kind.String()),
	)
}

// ── Invocation lifecycle hooks ──────────────────────

// OnInvocationStarted implements ext.InvocationStarted.
func (m *MetricsExtension) OnInvocationStarted(ctx context.Context, c middleware.Call) error {
	m.Started.Add(ctx, 1, callAttrs(c))
	return nil
}

// OnInvocationSucceeded implements ext.InvocationSucceeded.
func (m *MetricsExtension) OnInvocationSucceeded(ctx context.Context, c middleware.Call, elapsed time.Duration) error {
	m.Succeeded.Add(ctx, 1, callAttrs(c))
	m.Duration.Record(ctx, elapsed.Seconds(), callAttrs(c))
	return nil
}

// OnInvocationFailed implements ext.InvocationFailed.
func (m *MetricsExtension) OnInvocationFailed(ctx context.Context, c middleware.Call, _ error, elapsed time.Duration) error {
	m.Failed.Add(ctx, 1, callAttrs(c))
	m.Duration.Record(ctx, elapsed.Seconds(), callAttrs(c))
	return nil
}

// OnInvocationDefect implements ext.InvocationDefect.
func (m *MetricsExtension) OnInvocationDefect(ctx context.Context, c middleware.Call, _ error, elapsed time.Duration) error {
	m.Defect.Add(ctx, 1, callAttrs(c))
	m.Duration.Record(ctx, elapsed.Seconds(), callAttrs(c))
	return nil
}

// ── Chain hooks ─────────────────────────────────────

// OnMiddlewareSkipped implements ext.MiddlewareSkipped.
func (m *MetricsExtension) OnMiddlewareSkipped(ctx context.Context, c middleware.Call, d *middleware.Descriptor, _ error) error {
	m.Skipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entry", c.Entry),
		attribute.String("kind", c.Kind.String()),
		attribute.String("middleware", d.Name()),
	))
	return nil
}
