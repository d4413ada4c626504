// Package observability provides an OpenTelemetry metrics extension for
// weft. MetricsExtension implements the ext lifecycle hooks to record
// engine-wide counters for started, succeeded, failed and defect
// invocations and for skipped optional middleware.
//
// For per-chain tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
