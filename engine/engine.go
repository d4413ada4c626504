// Package engine drives composed chains to settlement. It owns the pieces
// shared by every invocation: the service resolver, the extension registry,
// the logger, telemetry providers and the in-flight bound.
//
// The engine is stateless between invocations. Everything an invocation
// creates (its capability registry, its defect cell) lives and dies with
// it.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/xraph/weft"
	"github.com/xraph/weft/chain"
	"github.com/xraph/weft/ext"
	"github.com/xraph/weft/middleware"
	"github.com/xraph/weft/observability"
	"github.com/xraph/weft/service"
)

// tracerName is the instrumentation scope of the invocation span.
const tracerName = "github.com/xraph/weft"

// Engine runs chains. It is safe for concurrent use.
type Engine struct {
	config     weft.Config
	logger     *slog.Logger
	resolver   service.Resolver
	extensions *ext.Registry
	pending    []ext.Extension
	tracer     trace.Tracer
	sem        *semaphore.Weighted
	closed     atomic.Bool

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithConfig replaces the engine configuration.
func WithConfig(cfg weft.Config) Option {
	return func(eng *Engine) { eng.config = cfg }
}

// WithResolver sets the strategy that picks the service container for each
// entry point.
func WithResolver(r service.Resolver) Option {
	return func(eng *Engine) { eng.resolver = r }
}

// WithContainer backs every entry point with c.
func WithContainer(c *service.Container) Option {
	return func(eng *Engine) { eng.resolver = service.Static(c) }
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.pending = append(eng.pending, e) }
}

// WithTracerProvider sets a custom OTel TracerProvider for the invocation
// span. If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the observability
// extension the engine registers. If not set, the global
// otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) { eng.meterProvider = mp }
}

// WithMaxInFlight bounds the number of invocations running at once.
// Callers beyond the bound wait; a caller whose context ends while waiting
// is interrupted.
func WithMaxInFlight(n int64) Option {
	return func(eng *Engine) { eng.config.MaxInFlight = n }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{
		config:   weft.DefaultConfig(),
		logger:   slog.Default(),
		resolver: service.Static(nil),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = slog.Default()
	}

	eng.extensions = ext.NewRegistry(eng.logger)

	// Register the observability metrics extension first.
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		obsExt = observability.NewMetricsExtensionWithMeter(eng.meterProvider.Meter("github.com/xraph/weft/observability"))
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)
	for _, e := range eng.pending {
		eng.extensions.Register(e)
	}
	eng.pending = nil

	tp := eng.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	eng.tracer = tp.Tracer(tracerName)

	if eng.config.MaxInFlight > 0 {
		eng.sem = semaphore.NewWeighted(eng.config.MaxInFlight)
	}

	return eng
}

// NewChain builds a chain subject to the engine's MaxChainLength.
func (eng *Engine) NewChain(descs []*middleware.Descriptor, terminal chain.Terminal) (*chain.Chain, error) {
	return chain.New(descs, terminal, chain.WithMaxLength(eng.config.MaxChainLength))
}

// Shutdown notifies Shutdown extensions and closes the resolver if it has a
// Close method. Invocations started afterwards settle with a defect
// matching weft.ErrEngineClosed. Calling Shutdown twice is a no-op.
func (eng *Engine) Shutdown(ctx context.Context) error {
	if !eng.closed.CompareAndSwap(false, true) {
		return nil
	}
	eng.extensions.EmitShutdown(ctx)
	if c, ok := eng.resolver.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Config returns the engine configuration.
func (eng *Engine) Config() weft.Config { return eng.config }

// Logger returns the engine logger.
func (eng *Engine) Logger() *slog.Logger { return eng.logger }

// Resolver returns the container resolver.
func (eng *Engine) Resolver() service.Resolver { return eng.resolver }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// observer reports skipped optional middleware to the log and extensions.
type observer struct{ eng *Engine }

func (o observer) MiddlewareSkipped(ctx context.Context, c middleware.Call, d *middleware.Descriptor, err error) {
	if o.eng.config.LogOptionalFailures {
		o.eng.logger.Debug("optional middleware skipped",
			slog.String("entry", c.Entry),
			slog.String("invocation_id", c.InvocationID.String()),
			slog.String("middleware", d.String()),
			slog.String("error", err.Error()),
		)
	}
	o.eng.extensions.EmitMiddlewareSkipped(ctx, c, d, err)
}
