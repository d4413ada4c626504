package weft

import "errors"

var (
	// Capability errors.
	ErrMissingCapability = errors.New("weft: missing capability")

	// Descriptor and binding errors.
	ErrWrapProvides      = errors.New("weft: wrapping middleware cannot provide a capability")
	ErrBindingMismatch   = errors.New("weft: implementation does not match descriptor")
	ErrNoImplementation  = errors.New("weft: no implementation bound for middleware")
	ErrDuplicateBinding  = errors.New("weft: middleware already bound")
	ErrChainTooLong      = errors.New("weft: chain exceeds maximum length")
	ErrNilDescriptor     = errors.New("weft: nil middleware descriptor")
	ErrNilHandler        = errors.New("weft: nil terminal handler")
	ErrContainerDisposed = errors.New("weft: service container disposed")
	ErrNoContainer       = errors.New("weft: no service container configured")

	// Settlement errors.
	ErrEmptyOutcome = errors.New("weft: invocation settled without an outcome")
	ErrInterrupted  = errors.New("weft: invocation interrupted")
	ErrResultType   = errors.New("weft: handler result has the wrong type")

	// Engine errors.
	ErrEngineClosed = errors.New("weft: engine shut down")

	// Hot reload errors.
	ErrCacheClosed = errors.New("weft: container cache closed")
)
