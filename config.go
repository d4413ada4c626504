package weft

// Config holds configuration for an Engine.
type Config struct {
	// CaptureStacks records a stack trace when a middleware or handler
	// panics. The stack is attached to the resulting defect and logged.
	CaptureStacks bool

	// LogOptionalFailures logs swallowed failures of optional middleware
	// at debug level.
	LogOptionalFailures bool

	// MaxChainLength rejects chains longer than this at build time.
	// Zero means no limit.
	MaxChainLength int

	// MaxInFlight bounds the number of invocations running at once.
	// Zero means unbounded.
	MaxInFlight int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CaptureStacks:       true,
		LogOptionalFailures: true,
		MaxChainLength:      256,
	}
}
