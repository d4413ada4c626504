package middleware

import (
	"context"
	"fmt"

	"github.com/xraph/weft"
	"github.com/xraph/weft/capability"
)

// Func is the implementation of a non-wrapping middleware. Its value is
// injected under the descriptor's capability, if it declares one.
type Func[T any] func(ctx context.Context, c Call) (T, error)

// Next runs the remainder of the chain.
type Next func(ctx context.Context) (any, error)

// WrapFunc is the implementation of a wrapping middleware. It decides
// whether and when to call next, and may replace its outcome.
type WrapFunc func(ctx context.Context, c Call, next Next) (any, error)

// Binding pairs a descriptor with its implementation.
type Binding struct {
	desc *Descriptor
	run  func(ctx context.Context, c Call) (any, error)
	wrap WrapFunc
}

// Bind binds a non-wrapping implementation. When the descriptor provides a
// capability, T must be that capability's value type.
func Bind[T any](d *Descriptor, fn Func[T]) (Binding, error) {
	if err := d.Validate(); err != nil {
		return Binding{}, err
	}
	if fn == nil {
		return Binding{}, fmt.Errorf("bind %s: nil implementation: %w", d, weft.ErrBindingMismatch)
	}
	if d.wrap {
		return Binding{}, fmt.Errorf("bind %s: wrapping descriptor needs BindWrap: %w", d, weft.ErrBindingMismatch)
	}
	if d.provides != nil {
		if _, ok := d.provides.(capability.Key[T]); !ok {
			var zero T
			return Binding{}, fmt.Errorf("bind %s: implementation yields %T, capability %q differs: %w",
				d, zero, d.provides.Name(), weft.ErrBindingMismatch)
		}
	}
	run := func(ctx context.Context, c Call) (any, error) {
		v, err := fn(ctx, c)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return Binding{desc: d, run: run}, nil
}

// MustBind is like Bind but panics on error.
func MustBind[T any](d *Descriptor, fn Func[T]) Binding {
	b, err := Bind(d, fn)
	if err != nil {
		panic(err)
	}
	return b
}

// BindWrap binds a wrapping implementation.
func BindWrap(d *Descriptor, fn WrapFunc) (Binding, error) {
	if err := d.Validate(); err != nil {
		return Binding{}, err
	}
	if fn == nil {
		return Binding{}, fmt.Errorf("bind %s: nil implementation: %w", d, weft.ErrBindingMismatch)
	}
	if !d.wrap {
		return Binding{}, fmt.Errorf("bind %s: non-wrapping descriptor needs Bind: %w", d, weft.ErrBindingMismatch)
	}
	return Binding{desc: d, wrap: fn}, nil
}

// MustBindWrap is like BindWrap but panics on error.
func MustBindWrap(d *Descriptor, fn WrapFunc) Binding {
	b, err := BindWrap(d, fn)
	if err != nil {
		panic(err)
	}
	return b
}

// Value creates a required provider in one step: a descriptor named name
// that provides k, bound to fn.
func Value[T any](name string, k capability.Key[T], fn Func[T], opts ...Option) Binding {
	opts = append([]Option{WithProvides(k)}, opts...)
	return MustBind(New(name, opts...), fn)
}

// Descriptor returns the bound descriptor.
func (b Binding) Descriptor() *Descriptor { return b.desc }

// IsZero reports whether b is the zero Binding.
func (b Binding) IsZero() bool { return b.desc == nil }

// Run invokes a non-wrapping implementation.
func (b Binding) Run(ctx context.Context, c Call) (any, error) {
	if b.run == nil {
		return nil, fmt.Errorf("run %s: %w", b.desc, weft.ErrBindingMismatch)
	}
	return b.run(ctx, c)
}

// Wrap invokes a wrapping implementation.
func (b Binding) Wrap(ctx context.Context, c Call, next Next) (any, error) {
	if b.wrap == nil {
		return nil, fmt.Errorf("wrap %s: %w", b.desc, weft.ErrBindingMismatch)
	}
	return b.wrap(ctx, c, next)
}
