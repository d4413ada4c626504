package hotreload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// changeOps are the file operations that invalidate a container.
const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watcher disposes one cache key whenever a watched path changes.
type Watcher struct {
	cache *Cache
	key   string
	w     *fsnotify.Watcher
}

// NewWatcher starts watching paths on behalf of key. Watching begins
// immediately; call Run to act on the changes.
func NewWatcher(c *Cache, key string, paths ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hotreload: new watcher: %w", err)
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("hotreload: watch %q: %w", p, err)
		}
	}
	return &Watcher{cache: c, key: key, w: w}, nil
}

// Run processes change events until ctx is done, then releases the
// underlying watcher.
func (wt *Watcher) Run(ctx context.Context) error {
	defer wt.w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-wt.w.Events:
			if !ok {
				return nil
			}
			if ev.Op&changeOps == 0 {
				continue
			}
			if err := wt.cache.Dispose(wt.key); err != nil {
				wt.cache.logger.Warn("container dispose failed",
					slog.String("key", wt.key),
					slog.String("error", err.Error()),
				)
			}
			wt.cache.logger.Info("container invalidated",
				slog.String("key", wt.key),
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()),
			)
		case err, ok := <-wt.w.Errors:
			if !ok {
				return nil
			}
			wt.cache.logger.Warn("watch error",
				slog.String("key", wt.key),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Watch is NewWatcher followed by Run.
func Watch(ctx context.Context, c *Cache, key string, paths ...string) error {
	wt, err := NewWatcher(c, key, paths...)
	if err != nil {
		return err
	}
	return wt.Run(ctx)
}
