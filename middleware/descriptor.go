package middleware

import (
	"fmt"

	"github.com/xraph/weft"
	"github.com/xraph/weft/capability"
	"github.com/xraph/weft/fault"
	"github.com/xraph/weft/id"
)

// Descriptor is the immutable description of one middleware. It carries no
// behaviour; implementations are bound to it separately (see Bind and
// BindWrap) and resolved from a service container at run time.
type Descriptor struct {
	id       id.MiddlewareID
	key      string
	name     string
	wrap     bool
	optional bool
	provides capability.Identifier
	failure  fault.Schema
	catches  fault.Schema
	returns  fault.Schema
}

// Option configures a Descriptor at construction time.
type Option func(*Descriptor)

// WithOptional marks the middleware optional: its typed failures are
// swallowed and the chain continues without the capability. It has no
// effect on wrapping middleware.
func WithOptional() Option {
	return func(d *Descriptor) { d.optional = true }
}

// WithProvides declares the capability the middleware injects on success.
func WithProvides(k capability.Identifier) Option {
	return func(d *Descriptor) { d.provides = k }
}

// WithFailure declares the typed failures the middleware may produce.
func WithFailure(s fault.Schema) Option {
	return func(d *Descriptor) { d.failure = s }
}

// WithCatches declares the typed failures a wrapping middleware may
// intercept from its remainder.
func WithCatches(s fault.Schema) Option {
	return func(d *Descriptor) { d.catches = s }
}

// WithReturns declares what a wrapping middleware may substitute as the
// result of the chain.
func WithReturns(s fault.Schema) Option {
	return func(d *Descriptor) { d.returns = s }
}

// New creates a non-wrapping descriptor. It panics if the options describe
// an invalid descriptor (programming error).
func New(name string, opts ...Option) *Descriptor {
	return build(name, false, opts)
}

// NewWrap creates a wrapping descriptor. It panics when combined with
// WithProvides: a wrapping middleware injects capabilities itself, around
// its call to next.
func NewWrap(name string, opts ...Option) *Descriptor {
	return build(name, true, opts)
}

func build(name string, wrap bool, opts []Option) *Descriptor {
	mid := id.NewMiddlewareID()
	d := &Descriptor{
		id:      mid,
		key:     mid.String(),
		name:    name,
		wrap:    wrap,
		failure: fault.Never,
		catches: fault.Never,
		returns: fault.Never,
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.Validate(); err != nil {
		panic(fmt.Sprintf("middleware: %s: %v", name, err))
	}
	return d
}

// Validate reports whether the descriptor is internally consistent.
func (d *Descriptor) Validate() error {
	if d == nil {
		return weft.ErrNilDescriptor
	}
	if d.wrap && d.provides != nil {
		return weft.ErrWrapProvides
	}
	return nil
}

// ID returns the descriptor's unique identifier.
func (d *Descriptor) ID() id.MiddlewareID { return d.id }

// Key returns the string form of the ID, used as a lookup key.
func (d *Descriptor) Key() string { return d.key }

// Name returns the display name. Names need not be unique.
func (d *Descriptor) Name() string { return d.name }

// String returns "name (mw_…)".
func (d *Descriptor) String() string { return fmt.Sprintf("%s (%s)", d.name, d.key) }

// IsWrap reports whether the middleware wraps the remainder of the chain.
func (d *Descriptor) IsWrap() bool { return d.wrap }

// IsOptional reports whether typed failures are swallowed.
func (d *Descriptor) IsOptional() bool { return d.optional }

// Provides returns the injected capability, or nil.
func (d *Descriptor) Provides() capability.Identifier { return d.provides }

// Failure returns the typed failure schema.
func (d *Descriptor) Failure() fault.Schema { return d.failure }

// Catches returns the schema of failures a wrapping middleware intercepts.
func (d *Descriptor) Catches() fault.Schema { return d.catches }

// Returns returns the schema of values a wrapping middleware substitutes.
func (d *Descriptor) Returns() fault.Schema { return d.returns }

// CanCatch reports whether err is a typed failure the descriptor declares
// it catches. Defects never match.
func (d *Descriptor) CanCatch(err error) bool { return d.catches.Match(err) }
