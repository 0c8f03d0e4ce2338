package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/a01094554781-oss/kfestival/internal/logging"
)

// DefaultDebounce is the quiet period after the last file event before a
// reload is attempted.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Store when its source file changes. It watches the
// parent directory so that editors which replace the file by rename are
// picked up.
type Watcher struct {
	store    *Store
	debounce time.Duration
	name     string
}

// NewWatcher creates a watcher for store. A non-positive debounce means
// DefaultDebounce.
func NewWatcher(store *Store, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{store: store, debounce: debounce, name: "dataset-watcher"}
}

// Serve implements suture.Service. It blocks until ctx is canceled.
func (w *Watcher) Serve(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	target := filepath.Clean(w.store.Path())
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	logging.Info().Str("path", target).Dur("debounce", w.debounce).Msg("watching dataset")

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("file watcher closed")
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("file watcher closed")
			}
			logging.Warn().Err(err).Str("path", target).Msg("file watcher error")

		case <-fire:
			fire = nil
			// Failures are logged and counted by the store.
			_, _, _ = w.store.Reload(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (w *Watcher) String() string {
	return w.name
}
