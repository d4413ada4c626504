// Package capability implements the per-invocation registry through which
// middleware hand values to everything downstream of them.
//
// A capability is named by a typed [Key]. A middleware that provides a key
// extends the registry; the extended registry is visible only to the code
// that runs after it in the chain. Registries are persistent: adding a
// binding never changes an existing registry, so concurrent invocations and
// upstream middleware never observe each other's values.
//
//	var UserKey = capability.NewKey[*User]("user")
//
//	ctx = capability.Provide(ctx, UserKey, u)
//	u, err := capability.From(ctx, UserKey)
package capability

import (
	"context"
	"fmt"

	"github.com/xraph/weft"
	"github.com/xraph/weft/id"
)

// Identifier names a capability without its value type. Every Key is an
// Identifier.
type Identifier interface {
	ID() id.CapabilityID
	Name() string
	identity() string
}

// Key is a typed capability identifier. Create keys once, at package
// level; two keys with the same name are different capabilities.
type Key[T any] struct {
	id   id.CapabilityID
	key  string
	name string
}

// NewKey creates a capability key for values of type T.
func NewKey[T any](name string) Key[T] {
	i := id.NewCapabilityID()
	return Key[T]{id: i, key: i.String(), name: name}
}

// ID returns the key's unique identifier.
func (k Key[T]) ID() id.CapabilityID { return k.id }

// Name returns the key's display name.
func (k Key[T]) Name() string { return k.name }

// String returns "name (cap_…)".
func (k Key[T]) String() string { return fmt.Sprintf("%s (%s)", k.name, k.key) }

func (k Key[T]) identity() string { return k.key }

// MissingError reports a lookup of a capability that was never provided.
type MissingError struct {
	Name string
	ID   id.CapabilityID
}

// Error implements error.
func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %q (%s)", weft.ErrMissingCapability, e.Name, e.ID)
}

// Unwrap returns weft.ErrMissingCapability.
func (e *MissingError) Unwrap() error { return weft.ErrMissingCapability }

// Registry is an immutable set of capability bindings. The nil Registry
// is empty and ready to use.
type Registry struct {
	parent *Registry
	key    string
	name   string
	value  any
	size   int
}

// With returns a registry that extends r with a binding for k. A later
// binding for the same key shadows an earlier one.
func (r *Registry) With(k Identifier, v any) *Registry {
	return &Registry{parent: r, key: k.identity(), name: k.Name(), value: v, size: r.Len() + 1}
}

// Lookup returns the value bound to k.
func (r *Registry) Lookup(k Identifier) (any, bool) {
	want := k.identity()
	for n := r; n != nil; n = n.parent {
		if n.key == want {
			return n.value, true
		}
	}
	return nil, false
}

// Has reports whether k is bound.
func (r *Registry) Has(k Identifier) bool {
	_, ok := r.Lookup(k)
	return ok
}

// Len returns the number of bindings, counting shadowed ones.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return r.size
}

// Names returns the names of all bindings, most recent first.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Len())
	for n := r; n != nil; n = n.parent {
		names = append(names, n.name)
	}
	return names
}

// Get returns the value bound to k in r.
func Get[T any](r *Registry, k Key[T]) (T, error) {
	v, ok := r.Lookup(k)
	if !ok {
		var zero T
		return zero, &MissingError{Name: k.name, ID: k.id}
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("capability %q holds %T: %w", k.name, v, weft.ErrBindingMismatch)
	}
	return t, nil
}

type registryKey struct{}

// WithRegistry returns a context carrying r.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// RegistryFrom returns the registry carried by ctx, or the empty registry.
func RegistryFrom(ctx context.Context) *Registry {
	r, _ := ctx.Value(registryKey{}).(*Registry)
	return r
}

// Provide returns a context whose registry extends the one in ctx with
// a binding for k.
func Provide[T any](ctx context.Context, k Key[T], v T) context.Context {
	return WithRegistry(ctx, RegistryFrom(ctx).With(k, v))
}

// Inject is the untyped form of Provide. The caller guarantees that v has
// the key's value type.
func Inject(ctx context.Context, k Identifier, v any) context.Context {
	return WithRegistry(ctx, RegistryFrom(ctx).With(k, v))
}

// From returns the value bound to k in ctx's registry. A missing binding
// yields a *MissingError.
func From[T any](ctx context.Context, k Key[T]) (T, error) {
	return Get(RegistryFrom(ctx), k)
}

// Must is like From but panics with the lookup error. Inside a chain the
// panic settles the invocation as a defect.
func Must[T any](ctx context.Context, k Key[T]) T {
	v, err := From(ctx, k)
	if err != nil {
		panic(err)
	}
	return v
}
