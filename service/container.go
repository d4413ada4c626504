// Package service holds the process-wide tables that map middleware
// descriptors to their implementations.
//
// A [Container] is built once, typically at program start, and shared by
// every invocation. Implementations in a container must not keep per-call
// state; per-call values travel through the capability registry.
//
// Which container backs an entry point is decided by a [Resolver]. The
// default resolver returns one static container; package hotreload provides
// a resolver that rebuilds containers on demand during development.
package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/weft"
	"github.com/xraph/weft/middleware"
)

// Resolver picks the container that backs an entry point.
type Resolver interface {
	Container(entry string) (*Container, error)
}

// Container maps descriptor identities to bindings. It is safe for
// concurrent use.
type Container struct {
	mu       sync.RWMutex
	bindings map[string]middleware.Binding
	closers  []func() error
	disposed bool
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{bindings: make(map[string]middleware.Binding)}
}

// Install adds bindings. Installing a second binding for the same
// descriptor fails with weft.ErrDuplicateBinding.
func (c *Container) Install(bs ...middleware.Binding) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return weft.ErrContainerDisposed
	}
	for _, b := range bs {
		if b.IsZero() {
			return weft.ErrNilDescriptor
		}
		d := b.Descriptor()
		if _, exists := c.bindings[d.Key()]; exists {
			return fmt.Errorf("install %s: %w", d, weft.ErrDuplicateBinding)
		}
		c.bindings[d.Key()] = b
	}
	return nil
}

// MustInstall is like Install but panics on error.
func (c *Container) MustInstall(bs ...middleware.Binding) {
	if err := c.Install(bs...); err != nil {
		panic(err)
	}
}

// Replace installs bindings, overwriting existing ones.
func (c *Container) Replace(bs ...middleware.Binding) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return weft.ErrContainerDisposed
	}
	for _, b := range bs {
		if b.IsZero() {
			return weft.ErrNilDescriptor
		}
		c.bindings[b.Descriptor().Key()] = b
	}
	return nil
}

// Resolve returns the binding for d.
func (c *Container) Resolve(d *middleware.Descriptor) (middleware.Binding, error) {
	if d == nil {
		return middleware.Binding{}, weft.ErrNilDescriptor
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.disposed {
		return middleware.Binding{}, weft.ErrContainerDisposed
	}
	b, ok := c.bindings[d.Key()]
	if !ok {
		return middleware.Binding{}, fmt.Errorf("resolve %s: %w", d, weft.ErrNoImplementation)
	}
	return b, nil
}

// Has reports whether d has a binding.
func (c *Container) Has(d *middleware.Descriptor) bool {
	_, err := c.Resolve(d)
	return err == nil
}

// Len returns the number of bindings.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bindings)
}

// Names returns the display names of all bound descriptors, sorted.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.bindings))
	for _, b := range c.bindings {
		names = append(names, b.Descriptor().Name())
	}
	sort.Strings(names)
	return names
}

// OnDispose registers fn to run when the container is disposed. Functions
// run in reverse registration order.
func (c *Container) OnDispose(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, fn)
}

// Dispose runs the registered dispose functions and makes the container
// unusable. Disposing twice is a no-op.
func (c *Container) Dispose() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Disposed reports whether Dispose has been called.
func (c *Container) Disposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

// static resolves every entry point to the same container.
type static struct{ c *Container }

// Static returns a Resolver that always yields c.
func Static(c *Container) Resolver { return static{c: c} }

func (s static) Container(string) (*Container, error) {
	if s.c == nil {
		return nil, weft.ErrNoContainer
	}
	return s.c, nil
}
