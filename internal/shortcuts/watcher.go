package shortcuts

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the store's mirror when the database file is written by
// another process, such as `texpand add` while a session is running.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func()
	logger   *zap.Logger
}

// WatcherConfig holds configuration for creating a Watcher.
type WatcherConfig struct {
	// Debounce coalesces bursts of writes. Defaults to 250ms.
	Debounce time.Duration

	// OnReload is called after each successful reload.
	OnReload func()

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewWatcher creates a watcher on the directory holding the store's database.
func NewWatcher(store *Store, cfg WatcherConfig) (*Watcher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create database watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(store.Path())); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(store.Path()), err)
	}

	return &Watcher{
		store:    store,
		watcher:  watcher,
		debounce: debounce,
		onReload: cfg.OnReload,
		logger:   logger,
	}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

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
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("database watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			if err := w.store.Reload(); err != nil {
				w.logger.Warn("failed to reload shortcuts after external change", zap.Error(err))
				continue
			}
			w.logger.Debug("reloaded shortcuts after external change")
			if w.onReload != nil {
				w.onReload()
			}
		}
	}
}

// relevant matches the database file and its -wal / -journal companions.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	base := filepath.Base(w.store.Path())
	return name == base || strings.HasPrefix(name, base+"-")
}
