//go:build linux

package hook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// hotplugSettle gives udev time to apply permissions to a new device node.
const hotplugSettle = 500 * time.Millisecond

// Keyboard reads key events from every keyboard under /dev/input. Reading
// evdev nodes requires membership of the input group (or root).
type Keyboard struct {
	devices []string
	logger  *zap.Logger

	// procDevices is overridable for tests.
	procDevices string

	mu   sync.Mutex
	open map[string]*os.File
}

// NewKeyboard creates a new Keyboard with the given configuration.
func NewKeyboard(cfg KeyboardConfig) (*Keyboard, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Keyboard{
		devices:     cfg.Devices,
		logger:      logger,
		procDevices: ProcDevicesFile,
		open:        make(map[string]*os.File),
	}, nil
}

// Subscribe implements Source.
func (k *Keyboard) Subscribe(ctx context.Context, fn func(KeyEvent)) error {
	paths := k.devices
	autodetect := len(paths) == 0
	if autodetect {
		var err error
		paths, err = k.detect()
		if err != nil {
			return err
		}
	}

	events := make(chan KeyEvent, 64)
	g, gctx := errgroup.WithContext(ctx)

	opened := 0
	for _, path := range paths {
		if err := k.startDevice(gctx, g, path, events); err != nil {
			k.logger.Warn("failed to open keyboard device", zap.String("path", path), zap.Error(err))
			continue
		}
		opened++
	}
	if opened == 0 {
		k.closeAll()
		return fmt.Errorf("%w (tried %s)", ErrNoKeyboard, strings.Join(paths, ", "))
	}

	if autodetect {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			k.logger.Warn("keyboard hotplug detection disabled", zap.Error(err))
		} else if err := watcher.Add(InputDir); err != nil {
			watcher.Close()
			k.logger.Warn("keyboard hotplug detection disabled", zap.Error(err))
		} else {
			g.Go(func() error {
				defer watcher.Close()
				return k.watchHotplug(gctx, g, watcher, events)
			})
		}
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-events:
				fn(ev)
			}
		}
	})

	// Closing the files unblocks the readers.
	g.Go(func() error {
		<-gctx.Done()
		k.closeAll()
		return nil
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (k *Keyboard) detect() ([]string, error) {
	f, err := os.Open(k.procDevices)
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}
	defer f.Close()

	paths, err := ParseKeyboards(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", k.procDevices, err)
	}
	if len(paths) == 0 {
		return nil, ErrNoKeyboard
	}
	return paths, nil
}

func (k *Keyboard) startDevice(ctx context.Context, g *errgroup.Group, path string, events chan<- KeyEvent) error {
	k.mu.Lock()
	if _, ok := k.open[path]; ok {
		k.mu.Unlock()
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		k.mu.Unlock()
		return err
	}
	k.open[path] = f
	k.mu.Unlock()

	k.logger.Info("reading keyboard", zap.String("path", path))
	g.Go(func() error {
		k.readDevice(ctx, path, f, events)
		return nil
	})
	return nil
}

// readDevice returns when the device disappears or the file is closed. One
// failing device never stops the others.
func (k *Keyboard) readDevice(ctx context.Context, path string, f *os.File, events chan<- KeyEvent) {
	defer k.forget(path, f)

	var translator Translator
	buf := make([]byte, inputEventSize)
	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			if ctx.Err() == nil && !errors.Is(err, os.ErrClosed) {
				k.logger.Info("keyboard device gone", zap.String("path", path), zap.Error(err))
			}
			return
		}

		ev := decodeInputEvent(buf)
		if ev.Type != evKey {
			continue
		}
		keyEvent, ok := translator.Translate(ev.Code, ev.Value)
		if !ok {
			continue
		}

		select {
		case events <- keyEvent:
		case <-ctx.Done():
			return
		}
	}
}

func (k *Keyboard) watchHotplug(ctx context.Context, g *errgroup.Group, watcher *fsnotify.Watcher, events chan<- KeyEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			k.logger.Warn("input device watcher error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) || !strings.HasPrefix(filepath.Base(event.Name), "event") {
				continue
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(hotplugSettle):
			}

			paths, err := k.detect()
			if err != nil {
				continue
			}
			for _, path := range paths {
				if path != event.Name {
					continue
				}
				if err := k.startDevice(ctx, g, path, events); err != nil {
					k.logger.Warn("failed to open hotplugged keyboard", zap.String("path", path), zap.Error(err))
				}
			}
		}
	}
}

func (k *Keyboard) forget(path string, f *os.File) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.open[path] == f {
		delete(k.open, path)
	}
	f.Close()
}

func (k *Keyboard) closeAll() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for path, f := range k.open {
		f.Close()
		delete(k.open, path)
	}
}
