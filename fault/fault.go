// Package fault defines how weft classifies the ways an invocation can go
// wrong.
//
// There are three outcomes besides success:
//
//   - A typed failure is an ordinary error returned by a middleware or
//     handler. It is expected, may be handled by an enclosing wrapping
//     middleware, and may be mapped to a value at the entry point.
//   - A defect is fatal: a panic, a control signal (see package control),
//     a missing capability, a missing implementation, or an internal
//     invariant violation. Defects are never handled and come back from the
//     invocation as the identical value that was raised.
//   - An interruption is reported when the caller's context ends before the
//     invocation settles.
package fault

import (
	"errors"
	"fmt"

	"github.com/xraph/weft"
	"github.com/xraph/weft/control"
	"github.com/xraph/weft/id"
)

// Kind classifies a settled outcome.
type Kind uint8

const (
	// KindSuccess means the invocation produced a value.
	KindSuccess Kind = iota
	// KindFailure means the invocation ended with a typed failure.
	KindFailure
	// KindDefect means the invocation ended with a fatal error.
	KindDefect
)

// String returns the outcome name used in logs and span attributes.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindDefect:
		return "defect"
	default:
		return "unknown"
	}
}

// Defect is a fatal error raised during an invocation. Cause holds the
// raised error when there is one; Value holds a non-error panic value.
type Defect struct {
	Cause error
	Value any
	Stack string
	// Origin names the middleware or handler that raised the defect.
	Origin string
}

// Error implements error.
func (d *Defect) Error() string {
	if d.Cause != nil {
		return d.Cause.Error()
	}
	if d.Origin != "" {
		return fmt.Sprintf("weft: panic in %s: %v", d.Origin, d.Value)
	}
	return fmt.Sprintf("weft: panic: %v", d.Value)
}

// Unwrap returns the raised error, if any.
func (d *Defect) Unwrap() error { return d.Cause }

// Identity returns the value the invocation reports for this defect: the
// raised error itself when there is one, otherwise the Defect.
func (d *Defect) Identity() error {
	if d.Cause != nil {
		return d.Cause
	}
	return d
}

// Recovered builds a Defect from a value obtained via recover().
func Recovered(v any, origin, stack string) *Defect {
	d := &Defect{Value: v, Origin: origin, Stack: stack}
	if err, ok := v.(error); ok {
		d.Cause = err
	}
	return d
}

// Escalate builds a Defect from a returned error that must not be treated
// as a typed failure. Control signals are unwrapped so the signal itself
// becomes the identity.
func Escalate(err error, origin string) *Defect {
	if s, ok := control.As(err); ok {
		return &Defect{Cause: s, Origin: origin}
	}
	return &Defect{Cause: err, Origin: origin}
}

// MustEscalate reports whether a returned error is fatal by nature: control
// signals, missing capabilities, missing implementations and empty
// outcomes.
func MustEscalate(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := control.As(err); ok {
		return true
	}
	return errors.Is(err, weft.ErrMissingCapability) ||
		errors.Is(err, weft.ErrNoImplementation) ||
		errors.Is(err, weft.ErrEmptyOutcome)
}

// IsDefect reports whether err is or wraps a defect. Wrapping middleware
// use it to leave fatal errors alone.
func IsDefect(err error) bool {
	if err == nil {
		return false
	}
	var d *Defect
	if errors.As(err, &d) {
		return true
	}
	var c *Composite
	if errors.As(err, &c) {
		return true
	}
	var in *Interrupted
	if errors.As(err, &in) {
		return true
	}
	return MustEscalate(err)
}

// Interrupted reports that the caller's context ended before the
// invocation settled.
type Interrupted struct {
	InvocationID id.InvocationID
	Cause        error
}

// Error implements error.
func (e *Interrupted) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("weft: invocation %s interrupted: %v", e.InvocationID, e.Cause)
	}
	return fmt.Sprintf("weft: invocation %s interrupted", e.InvocationID)
}

// Unwrap exposes both the sentinel and the context cause.
func (e *Interrupted) Unwrap() []error {
	if e.Cause == nil {
		return []error{weft.ErrInterrupted}
	}
	return []error{weft.ErrInterrupted, e.Cause}
}

// Composite combines two faults raised in one invocation.
type Composite struct {
	Left     error
	Right    error
	Parallel bool
}

// Sequential combines a fault with one raised after it.
func Sequential(left, right error) *Composite {
	return &Composite{Left: left, Right: right}
}

// Parallel combines two faults raised concurrently.
func Parallel(left, right error) *Composite {
	return &Composite{Left: left, Right: right, Parallel: true}
}

// Error implements error.
func (c *Composite) Error() string {
	if c.Parallel {
		return fmt.Sprintf("weft: parallel faults: (%v) | (%v)", c.Left, c.Right)
	}
	return fmt.Sprintf("weft: sequential faults: (%v) then (%v)", c.Left, c.Right)
}

// Unwrap exposes both sides.
func (c *Composite) Unwrap() []error { return []error{c.Left, c.Right} }
