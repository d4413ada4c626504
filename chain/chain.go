package chain

import (
	"context"
	"fmt"

	"github.com/xraph/weft"
	"github.com/xraph/weft/middleware"
)

// Terminal is the computation at the end of a chain.
type Terminal func(ctx context.Context, c middleware.Call) (any, error)

// Resolver finds the implementation bound to a descriptor.
// *service.Container satisfies it.
type Resolver interface {
	Resolve(d *middleware.Descriptor) (middleware.Binding, error)
}

// Observer is notified of events inside a run that do not change its
// outcome.
type Observer interface {
	MiddlewareSkipped(ctx context.Context, c middleware.Call, d *middleware.Descriptor, err error)
}

// Chain is an immutable, reusable composition of descriptors and a
// terminal computation.
type Chain struct {
	descs    []*middleware.Descriptor
	terminal Terminal
	opts     []BuildOption
}

// BuildOption configures chain construction.
type BuildOption func(*buildOptions)

type buildOptions struct {
	maxLength int
}

// WithMaxLength rejects chains with more than n descriptors.
// Zero means no limit.
func WithMaxLength(n int) BuildOption {
	return func(o *buildOptions) { o.maxLength = n }
}

// New builds a chain. Descriptors run in the given order; duplicates run
// every time they appear.
func New(descs []*middleware.Descriptor, terminal Terminal, opts ...BuildOption) (*Chain, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	if terminal == nil {
		return nil, weft.ErrNilHandler
	}
	if o.maxLength > 0 && len(descs) > o.maxLength {
		return nil, fmt.Errorf("chain of %d descriptors (max %d): %w", len(descs), o.maxLength, weft.ErrChainTooLong)
	}
	for i, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("chain descriptor %d: %w", i, err)
		}
	}

	cp := make([]*middleware.Descriptor, len(descs))
	copy(cp, descs)
	return &Chain{descs: cp, terminal: terminal, opts: opts}, nil
}

// Len returns the number of descriptors.
func (c *Chain) Len() int { return len(c.descs) }

// Descriptors returns a copy of the descriptor list.
func (c *Chain) Descriptors() []*middleware.Descriptor {
	cp := make([]*middleware.Descriptor, len(c.descs))
	copy(cp, c.descs)
	return cp
}

// Append returns a new chain with descs added after the existing ones,
// closest to the terminal. The new chain is built with the same options,
// so a length bound still applies.
func (c *Chain) Append(descs ...*middleware.Descriptor) (*Chain, error) {
	all := make([]*middleware.Descriptor, 0, len(c.descs)+len(descs))
	all = append(all, c.descs...)
	all = append(all, descs...)
	return New(all, c.terminal, c.opts...)
}
