// Package expand replaces typed triggers with their expansions system-wide.
package expand

import (
	"context"
	"errors"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/atinylittleshell/texpand/internal/hook"
	"github.com/atinylittleshell/texpand/internal/shortcuts"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"
)

// ErrStopped is returned by Run after Stop.
var ErrStopped = errors.New("listener stopped")

// Stats counts listener activity.
type Stats struct {
	Expansions int64
	Failures   int64
}

// Listener watches system key events and expands triggers when they are
// followed by a space or punctuation typed on the same line. It implements
// shortcuts.Mirror, so the store keeps its table current.
type Listener struct {
	hook   hook.Hook
	logger *zap.Logger

	tableMu sync.RWMutex
	table   map[string]string

	// buffer is the word being typed. Only the subscription goroutine
	// touches it.
	buffer []rune

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped atomic.Bool

	expansions atomic.Int64
	failures   atomic.Int64
}

// ListenerConfig holds configuration for creating a Listener.
type ListenerConfig struct {
	// Hook delivers key events and performs replacements. Required.
	Hook hook.Hook

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewListener creates a new Listener with an empty table.
func NewListener(cfg ListenerConfig) *Listener {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Listener{
		hook:   cfg.Hook,
		logger: logger,
		table:  make(map[string]string),
	}
}

// AddAbbreviation adds or replaces a trigger in the live table.
func (l *Listener) AddAbbreviation(trigger, expansion string) {
	l.tableMu.Lock()
	l.table[trigger] = expansion
	l.tableMu.Unlock()
}

// RemoveAbbreviation removes a trigger from the live table.
func (l *Listener) RemoveAbbreviation(trigger string) {
	l.tableMu.Lock()
	delete(l.table, trigger)
	l.tableMu.Unlock()
}

// ReplaceAbbreviations swaps the whole live table.
func (l *Listener) ReplaceAbbreviations(table map[string]string) {
	next := maps.Clone(table)
	if next == nil {
		next = make(map[string]string)
	}

	l.tableMu.Lock()
	l.table = next
	l.tableMu.Unlock()
}

// Lookup returns the expansion for an exact trigger.
func (l *Listener) Lookup(trigger string) (string, bool) {
	l.tableMu.RLock()
	defer l.tableMu.RUnlock()
	expansion, ok := l.table[trigger]
	return expansion, ok
}

// Len returns the number of live triggers.
func (l *Listener) Len() int {
	l.tableMu.RLock()
	defer l.tableMu.RUnlock()
	return len(l.table)
}

// Stats returns the activity counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Expansions: l.expansions.Load(),
		Failures:   l.failures.Load(),
	}
}

// Run subscribes to the hook and blocks until ctx is done or Stop is called.
// A listener runs at most once.
func (l *Listener) Run(ctx context.Context) error {
	l.runMu.Lock()
	if l.stopped.Load() {
		l.runMu.Unlock()
		return ErrStopped
	}
	if l.done != nil {
		l.runMu.Unlock()
		return errors.New("listener already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	done := l.done
	l.runMu.Unlock()

	defer close(done)
	defer cancel()

	l.logger.Info("listening for triggers", zap.Int("triggers", l.Len()))
	err := l.hook.Subscribe(ctx, func(ev hook.KeyEvent) {
		l.handle(ctx, ev)
	})
	l.logger.Info("listener finished", zap.Int64("expansions", l.expansions.Load()))
	return err
}

// Stop ends Run and waits for it to return. No replacement is performed after
// Stop returns, even for events the hook has already delivered.
func (l *Listener) Stop() {
	l.stopped.Store(true)

	l.runMu.Lock()
	cancel, done := l.cancel, l.done
	l.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// StopContext is Stop bounded by ctx. It returns ctx.Err() if Run has not
// returned in time.
func (l *Listener) StopContext(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		l.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Listener) handle(ctx context.Context, ev hook.KeyEvent) {
	if l.stopped.Load() {
		return
	}

	switch ev.Key {
	case hook.KeyBackspace:
		if len(l.buffer) > 0 {
			l.buffer = l.buffer[:len(l.buffer)-1]
		}
	case hook.KeyRune:
		if !shortcuts.IsBoundary(ev.Rune) {
			l.buffer = append(l.buffer, ev.Rune)
			return
		}
		word := string(l.buffer)
		l.buffer = l.buffer[:0]
		l.expand(ctx, word, ev.Rune)
	default:
		// Enter, Tab, navigation and chords end the word without expanding it.
		l.buffer = l.buffer[:0]
	}
}

func (l *Listener) expand(ctx context.Context, word string, boundary rune) {
	if word == "" {
		return
	}
	expansion, ok := l.Lookup(word)
	if !ok {
		return
	}

	if l.stopped.Load() {
		return
	}

	inj := hook.Injection{
		Erase: uniseg.GraphemeClusterCount(word) + 1,
		Text:  expansion + string(boundary),
	}
	if err := l.hook.Inject(ctx, inj); err != nil {
		l.failures.Add(1)
		l.logger.Warn("failed to inject expansion",
			zap.String("trigger", word),
			zap.Error(err),
		)
		return
	}

	l.expansions.Add(1)
	l.logger.Debug("expanded trigger", zap.String("trigger", word))
}
