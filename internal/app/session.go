// Package app wires the shortcut store, the abbreviation listener and the
// shortcut manager UI into one session with an orderly shutdown.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinylittleshell/texpand/internal/config"
	"github.com/atinylittleshell/texpand/internal/expand"
	"github.com/atinylittleshell/texpand/internal/hook"
	"github.com/atinylittleshell/texpand/internal/predict"
	"github.com/atinylittleshell/texpand/internal/shortcuts"
	"github.com/atinylittleshell/texpand/internal/suggest"
	"github.com/atinylittleshell/texpand/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options holds configuration for creating a Session.
type Options struct {
	// Config supplies timeouts and the suggestion debounce. If nil,
	// config.DefaultConfig is used.
	Config *config.Config

	// Store is owned by the session from here on: it is purged of temporary
	// shortcuts and closed when Run returns. Required.
	Store *shortcuts.Store

	// Hook is the system input capability. If nil, triggers are not
	// expanded and only the shortcut manager runs.
	Hook hook.Hook

	// Backend answers suggestion requests. If nil, suggestions are disabled.
	Backend predict.Backend

	// Headless runs without the UI until the context is cancelled.
	Headless bool

	// WatchStore reloads the listener when another process changes the store.
	WatchStore bool

	// ProgramOptions are passed to the Bubble Tea program.
	ProgramOptions []tea.ProgramOption

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// Session is one run of the expander.
type Session struct {
	config    *config.Config
	store     *shortcuts.Store
	backend   predict.Backend
	listener  *expand.Listener
	expanding bool
	headless  bool
	watch     bool
	programs  []tea.ProgramOption
	logger    *zap.Logger
}

// NewSession creates a new Session with the given options.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &Session{
		config:  cfg,
		store:   opts.Store,
		backend: opts.Backend,
		listener: expand.NewListener(expand.ListenerConfig{
			Hook:   opts.Hook,
			Logger: logger.Named("listener"),
		}),
		expanding: opts.Hook != nil,
		headless:  opts.Headless,
		watch:     opts.WatchStore,
		programs:  opts.ProgramOptions,
		logger:    logger,
	}
}

// Listener returns the session's abbreviation listener.
func (s *Session) Listener() *expand.Listener {
	return s.listener
}

// Run loads the shortcuts, starts the listener and blocks until the UI exits
// (or ctx is cancelled in headless mode). The store is closed on return.
func (s *Session) Run(ctx context.Context) error {
	if err := s.store.Load(s.listener); err != nil {
		return errors.Join(
			fmt.Errorf("failed to load shortcuts: %w", err),
			s.store.Close(),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	listenerDone := make(chan error, 1)
	if s.expanding {
		go func() {
			err := s.listener.Run(runCtx)
			if err != nil && !errors.Is(err, expand.ErrStopped) {
				s.logger.Error("abbreviation listener failed", zap.Error(err))
				cancel()
			}
			listenerDone <- err
		}()
	} else {
		s.logger.Warn("no keyboard hook, triggers will not be expanded")
		listenerDone <- nil
	}

	g, gctx := errgroup.WithContext(runCtx)

	var program *tea.Program
	if !s.headless {
		program = s.newProgram(gctx)
	}

	if s.watch {
		watcher, err := shortcuts.NewWatcher(s.store, shortcuts.WatcherConfig{
			OnReload: func() {
				if program != nil {
					program.Send(ui.RefreshMsg{})
				}
			},
			Logger: s.logger.Named("watcher"),
		})
		if err != nil {
			s.logger.Warn("external store changes will not be picked up", zap.Error(err))
		} else {
			g.Go(func() error {
				return watcher.Run(gctx)
			})
		}
	}

	if program != nil {
		g.Go(func() error {
			defer cancel()
			_, err := program.Run()
			if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
				return nil
			}
			return err
		})
	} else {
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	}

	runErr := g.Wait()
	cancel()

	return errors.Join(runErr, s.shutdown(listenerDone))
}

// newProgram builds the shortcut manager with a suggestion controller for its
// expansion field.
func (s *Session) newProgram(ctx context.Context) *tea.Program {
	presenter := ui.NewPresenter(s.logger.Named("presenter"))

	var suggester ui.Suggester
	var controller *suggest.Controller
	if s.backend != nil {
		controller = suggest.NewController(suggest.ControllerConfig{
			Debounce:  s.config.Suggest.Debounce,
			Backend:   s.backend,
			Presenter: presenter,
			Logger:    s.logger.Named("suggest"),
		})
		suggester = controller
	}

	model := ui.New(ui.Config{
		Store:     s.store,
		Suggester: suggester,
		Logger:    s.logger.Named("ui"),
	})

	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, s.programs...)
	program := tea.NewProgram(model, opts...)
	presenter.Attach(program)

	context.AfterFunc(ctx, func() {
		if controller != nil {
			controller.Close()
		}
		presenter.Close()
	})
	return program
}

// shutdown stops the listener, then purges temporary shortcuts and closes the
// store, in that order.
func (s *Session) shutdown(listenerDone <-chan error) error {
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultConfig().ShutdownTimeout
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
	defer stopCancel()

	if err := s.listener.StopContext(stopCtx); err != nil {
		s.logger.Warn("listener did not stop in time", zap.Duration("timeout", timeout))
	}

	var listenErr error
	select {
	case listenErr = <-listenerDone:
		if errors.Is(listenErr, expand.ErrStopped) {
			listenErr = nil
		}
	case <-stopCtx.Done():
	}

	purged, purgeErr := s.store.PurgeTemporary()
	if purgeErr != nil {
		s.logger.Error("failed to purge temporary shortcuts", zap.Error(purgeErr))
	} else if len(purged) > 0 {
		s.logger.Info("purged temporary shortcuts", zap.Int("count", len(purged)))
	}

	closeErr := s.store.Close()

	stats := s.listener.Stats()
	s.logger.Info("session finished",
		zap.Int64("expansions", stats.Expansions),
		zap.Int64("failures", stats.Failures),
	)

	return errors.Join(listenErr, purgeErr, closeErr)
}
