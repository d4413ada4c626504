package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns wrapping middleware that logs the start and completion of
// the remainder of the chain. Defects are logged at Error, typed failures
// at Warn.
func Logging(logger *slog.Logger) Binding {
	d := NewWrap("logging")
	return MustBindWrap(d, func(ctx context.Context, c Call, next Next) (any, error) {
		logger.Debug("invocation started",
			slog.String("entry", c.Entry),
			slog.String("kind", c.Kind.String()),
			slog.String("invocation_id", c.InvocationID.String()),
		)

		start := time.Now()
		v, err := next(ctx)
		elapsed := time.Since(start)

		switch outcome(err) {
		case "ok":
			logger.Info("invocation completed",
				slog.String("entry", c.Entry),
				slog.String("invocation_id", c.InvocationID.String()),
				slog.Duration("elapsed", elapsed),
			)
		case "defect":
			logger.Error("invocation defect",
				slog.String("entry", c.Entry),
				slog.String("invocation_id", c.InvocationID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		default:
			logger.Warn("invocation failed",
				slog.String("entry", c.Entry),
				slog.String("invocation_id", c.InvocationID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		}

		return v, err
	})
}
