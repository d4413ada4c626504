// Package hotreload provides a [service.Resolver] whose containers can be
// rebuilt while the process runs.
//
// A [Cache] creates containers lazily through a [Factory], one per key, and
// keeps them until they are replaced or disposed. A [Watcher] disposes a
// key's container when files it depends on change, so the next invocation
// builds a fresh one. Invocations already running keep the implementations
// they resolved when they started.
package hotreload

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/xraph/weft"
	"github.com/xraph/weft/service"
)

// Factory builds the container for key.
type Factory func(key string) (*service.Container, error)

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithKeyFunc maps entry names to cache keys. By default every entry point
// has its own key.
func WithKeyFunc(fn func(entry string) string) Option {
	return func(c *Cache) { c.keyOf = fn }
}

// Cache maps keys to lazily created containers. It is safe for concurrent
// use.
type Cache struct {
	factory Factory
	keyOf   func(string) string
	logger  *slog.Logger
	group   singleflight.Group

	mu      sync.Mutex
	entries map[string]*service.Container
	closed  bool
}

var _ service.Resolver = (*Cache)(nil)

// New creates a cache backed by factory.
func New(factory Factory, opts ...Option) *Cache {
	c := &Cache{
		factory: factory,
		keyOf:   func(entry string) string { return entry },
		logger:  slog.Default(),
		entries: make(map[string]*service.Container),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Container returns the container for the entry point, creating it on first
// use. Concurrent callers for the same key share one factory call.
func (c *Cache) Container(entry string) (*service.Container, error) {
	key := c.keyOf(entry)
	if sc, ok, err := c.lookup(key); ok || err != nil {
		return sc, err
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if sc, ok, err := c.lookup(key); ok || err != nil {
			return sc, err
		}

		sc, err := c.factory(key)
		if err != nil {
			return nil, fmt.Errorf("hotreload: build container %q: %w", key, err)
		}
		if sc == nil {
			return nil, fmt.Errorf("hotreload: build container %q: %w", key, weft.ErrNoContainer)
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, errors.Join(weft.ErrCacheClosed, sc.Dispose())
		}
		c.entries[key] = sc
		c.mu.Unlock()

		c.logger.Debug("container created", slog.String("key", key))
		return sc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*service.Container), nil
}

// lookup returns the live container for key. A container disposed outside
// the cache counts as absent.
func (c *Cache) lookup(key string) (*service.Container, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false, weft.ErrCacheClosed
	}
	sc, ok := c.entries[key]
	if !ok || sc.Disposed() {
		return nil, false, nil
	}
	return sc, true, nil
}

// Replace installs sc under key and disposes the container it replaces.
func (c *Cache) Replace(key string, sc *service.Container) error {
	if sc == nil {
		return weft.ErrNoContainer
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return weft.ErrCacheClosed
	}
	old := c.entries[key]
	c.entries[key] = sc
	c.mu.Unlock()

	if old == nil || old == sc {
		return nil
	}
	c.logger.Debug("container replaced", slog.String("key", key))
	return old.Dispose()
}

// Dispose removes and disposes the container for key. The next lookup
// builds a new one. Disposing an absent key is a no-op.
func (c *Cache) Dispose(key string) error {
	c.mu.Lock()
	sc, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	c.logger.Debug("container disposed", slog.String("key", key))
	return sc.Dispose()
}

// Keys returns the keys that currently hold a container, sorted.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close disposes every container and rejects further lookups. Closing twice
// is a no-op.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	entries := c.entries
	c.entries = make(map[string]*service.Container)
	c.mu.Unlock()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := entries[k].Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("hotreload: dispose %q: %w", k, err))
		}
	}
	return errors.Join(errs...)
}
