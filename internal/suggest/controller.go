// Package suggest turns text edits in an input field into inline continuation
// suggestions. Edits are debounced, requests are numbered, and only the result
// of the most recent request is ever presented.
package suggest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atinylittleshell/texpand/internal/predict"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last edit before a request is
// issued.
const DefaultDebounce = time.Second

// State is the lifecycle state of the controller for its field.
type State int

const (
	StateIdle State = iota
	StatePending
	StateFetching
	StateResolved
	StateStale
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateResolved:
		return "resolved"
	case StateStale:
		return "stale"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request is a single backend request for a suggestion.
type Request struct {
	Seq      int64
	Text     string
	IssuedAt time.Time
}

// Stats counts controller activity.
type Stats struct {
	Requests int64
	Shown    int64
	Stale    int64
	Failed   int64
}

// Controller manages suggestions for one input field.
type Controller struct {
	debounce  time.Duration
	backend   predict.Backend
	presenter Presenter
	logger    *zap.Logger

	// seq identifies the current request. Any edit bumps it, which
	// invalidates both the scheduled timer and any in-flight request.
	seq atomic.Int64

	mu      sync.Mutex
	state   State
	timer   *time.Timer
	cancel  context.CancelFunc
	pending *Suggestion
	visible bool
	closed  bool
	stats   Stats

	wg sync.WaitGroup
}

// ControllerConfig holds configuration for creating a Controller.
type ControllerConfig struct {
	// Debounce defaults to DefaultDebounce if not set.
	Debounce time.Duration

	// Backend answers requests. If nil, the controller never suggests.
	Backend predict.Backend

	// Presenter receives show and hide calls. Required.
	Presenter Presenter

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewController creates a new Controller with the given configuration.
func NewController(cfg ControllerConfig) *Controller {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		debounce:  debounce,
		backend:   cfg.Backend,
		presenter: cfg.Presenter,
		logger:    logger,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns a snapshot of the activity counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Seq returns the current request id.
func (c *Controller) Seq() int64 {
	return c.seq.Load()
}

// IsCurrent reports whether seq still identifies the current request. UIs
// that deliver Show asynchronously use it to drop suggestions that raced an
// edit.
func (c *Controller) IsCurrent(seq int64) bool {
	return c.seq.Load() == seq
}

// Pending returns the suggestion awaiting acceptance, if any.
func (c *Controller) Pending() (Suggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Suggestion{}, false
	}
	return *c.pending, true
}

// OnTextChanged must be called on every edit of the field. caret is the
// cursor position in runes.
func (c *Controller) OnTextChanged(text string, caret int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.invalidateLocked()
	c.state = StatePending

	scheduled := c.seq.Load()
	c.timer = time.AfterFunc(c.debounce, func() {
		c.issue(scheduled, text, caret)
	})
}

// OnBlur clears any suggestion when the field loses focus.
func (c *Controller) OnBlur() {
	c.reset()
}

// Dismiss clears any suggestion at the user's request.
func (c *Controller) Dismiss() {
	c.reset()
}

// Accept returns the pending suffix and clears it. The caller inserts the
// suffix and reports the resulting edit through OnTextChanged.
func (c *Controller) Accept() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return "", false
	}
	suffix := c.pending.Suffix
	c.invalidateLocked()
	c.state = StateIdle
	return suffix, true
}

// Close stops the timer, cancels any in-flight request and waits for it to
// return. Nothing is presented after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.invalidateLocked()
	c.state = StateIdle
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Controller) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.invalidateLocked()
	c.state = StateIdle
}

// invalidateLocked stops scheduled and in-flight work and clears the visible
// suggestion. Must be called with mu held.
func (c *Controller) invalidateLocked() {
	c.seq.Add(1)

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	c.pending = nil
	if c.visible && c.presenter != nil {
		c.presenter.Hide()
	}
	c.visible = false
}

// issue runs when the debounce timer fires.
func (c *Controller) issue(scheduled int64, text string, caret int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.seq.Load() != scheduled {
		return
	}
	c.timer = nil

	if c.backend == nil || strings.TrimSpace(text) == "" {
		c.state = StateIdle
		return
	}

	req := Request{
		Seq:      c.seq.Add(1),
		Text:     text,
		IssuedAt: time.Now(),
	}
	c.state = StateFetching
	c.stats.Requests++

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		generated, err := c.backend.Complete(ctx, req.Text)
		c.resolve(req, caret, generated, err)
	}()
}

// resolve handles a backend result. The staleness check and the Show call
// happen under one lock so an edit cannot slip in between.
func (c *Controller) resolve(req Request, caret int, generated string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.seq.Load() != req.Seq {
		c.stats.Stale++
		if !c.closed && c.state == StateFetching {
			c.state = StateStale
		}
		c.logger.Debug("discarding stale suggestion",
			zap.Int64("requestSeq", req.Seq),
			zap.Int64("currentSeq", c.seq.Load()),
		)
		return
	}
	c.cancel = nil

	if err != nil {
		c.failLocked()
		c.logger.Debug("suggestion backend failed",
			zap.Int64("seq", req.Seq),
			zap.Duration("elapsed", time.Since(req.IssuedAt)),
			zap.Error(err),
		)
		return
	}

	suffix, ok := Match(req.Text, generated)
	if !ok {
		c.failLocked()
		c.logger.Debug("no matching continuation",
			zap.Int64("seq", req.Seq),
			zap.String("text", req.Text),
			zap.String("generated", generated),
		)
		return
	}

	suggestion := Suggestion{
		Seq:    req.Seq,
		Suffix: suffix,
		Anchor: Anchor(req.Text, caret),
	}
	c.pending = &suggestion
	c.visible = true
	c.state = StateResolved
	c.stats.Shown++

	c.logger.Debug("showing suggestion",
		zap.Int64("seq", req.Seq),
		zap.String("suffix", suffix),
		zap.Duration("elapsed", time.Since(req.IssuedAt)),
	)
	if c.presenter != nil {
		c.presenter.Show(suggestion)
	}
}

func (c *Controller) failLocked() {
	c.state = StateFailed
	c.stats.Failed++
	c.pending = nil
	if c.presenter != nil {
		c.presenter.Hide()
	}
	c.visible = false
}
