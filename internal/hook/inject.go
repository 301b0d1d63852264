package hook

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"
)

const (
	ToolAuto    = "auto"
	ToolXdotool = "xdotool"
	ToolWtype   = "wtype"
)

// Runner runs an external command with optional stdin.
type Runner func(ctx context.Context, name string, args []string, stdin string) error

func execRunner(ctx context.Context, name string, args []string, stdin string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// CommandInjector types through xdotool (X11) or wtype (Wayland).
type CommandInjector struct {
	tool   string
	run    Runner
	logger *zap.Logger
}

// CommandInjectorConfig holds configuration for creating a CommandInjector.
type CommandInjectorConfig struct {
	// Tool is ToolXdotool, ToolWtype or ToolAuto (the default), which picks
	// wtype when WAYLAND_DISPLAY is set.
	Tool string

	// Runner defaults to running the command with os/exec.
	Runner Runner

	// Getenv defaults to os.Getenv.
	Getenv func(string) string

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewCommandInjector creates a new CommandInjector with the given configuration.
func NewCommandInjector(cfg CommandInjectorConfig) *CommandInjector {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	run := cfg.Runner
	if run == nil {
		run = execRunner
	}
	getenv := cfg.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	tool := cfg.Tool
	if tool != ToolXdotool && tool != ToolWtype {
		tool = ToolXdotool
		if getenv("WAYLAND_DISPLAY") != "" {
			tool = ToolWtype
		}
	}

	return &CommandInjector{
		tool:   tool,
		run:    run,
		logger: logger,
	}
}

// Tool returns the command used for typing.
func (i *CommandInjector) Tool() string {
	return i.tool
}

// Inject implements Injector.
func (i *CommandInjector) Inject(ctx context.Context, inj Injection) error {
	if inj.Erase > 0 {
		if err := i.erase(ctx, inj.Erase); err != nil {
			return fmt.Errorf("failed to erase trigger: %w", err)
		}
	}
	if inj.Text != "" {
		if err := i.typeText(ctx, inj.Text); err != nil {
			return fmt.Errorf("failed to type expansion: %w", err)
		}
	}
	return nil
}

// Paste sends ctrl+v to the focused application.
func (i *CommandInjector) Paste(ctx context.Context) error {
	if i.tool == ToolWtype {
		return i.run(ctx, ToolWtype, []string{"-M", "ctrl", "v", "-m", "ctrl"}, "")
	}
	return i.run(ctx, ToolXdotool, []string{"key", "--clearmodifiers", "ctrl+v"}, "")
}

func (i *CommandInjector) erase(ctx context.Context, n int) error {
	if i.tool == ToolWtype {
		args := make([]string, 0, 2*n)
		for range n {
			args = append(args, "-k", "BackSpace")
		}
		return i.run(ctx, ToolWtype, args, "")
	}

	args := []string{"key", "--clearmodifiers", "--delay", "0"}
	for range n {
		args = append(args, "BackSpace")
	}
	return i.run(ctx, ToolXdotool, args, "")
}

func (i *CommandInjector) typeText(ctx context.Context, text string) error {
	if i.tool == ToolWtype {
		return i.run(ctx, ToolWtype, []string{"-"}, text)
	}
	return i.run(ctx, ToolXdotool, []string{"type", "--clearmodifiers", "--delay", "0", "--", text}, "")
}

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// ClipboardInjector pastes long or multi-line text through the clipboard,
// which is much faster than typing it and keeps editors from auto-indenting
// each line. Short text is typed.
type ClipboardInjector struct {
	keys         *CommandInjector
	clipboard    Clipboard
	threshold    int
	restoreDelay time.Duration
	logger       *zap.Logger
}

// ClipboardInjectorConfig holds configuration for creating a ClipboardInjector.
type ClipboardInjectorConfig struct {
	// Keys erases the trigger, types short text and sends the paste chord.
	Keys *CommandInjector

	// Clipboard defaults to the system clipboard.
	Clipboard Clipboard

	// Threshold is the length in characters from which text is pasted.
	Threshold int

	// RestoreDelay is how long the application gets to read the clipboard
	// before its previous content is restored. Defaults to 150ms.
	RestoreDelay time.Duration

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewClipboardInjector creates a new ClipboardInjector with the given configuration.
func NewClipboardInjector(cfg ClipboardInjectorConfig) *ClipboardInjector {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	board := cfg.Clipboard
	if board == nil {
		board = systemClipboard{}
	}
	restoreDelay := cfg.RestoreDelay
	if restoreDelay == 0 {
		restoreDelay = 150 * time.Millisecond
	}

	return &ClipboardInjector{
		keys:         cfg.Keys,
		clipboard:    board,
		threshold:    cfg.Threshold,
		restoreDelay: restoreDelay,
		logger:       logger,
	}
}

// Inject implements Injector.
func (c *ClipboardInjector) Inject(ctx context.Context, inj Injection) error {
	if !c.shouldPaste(inj.Text) {
		return c.keys.Inject(ctx, inj)
	}

	if err := c.keys.Inject(ctx, Injection{Erase: inj.Erase}); err != nil {
		return err
	}

	previous, readErr := c.clipboard.ReadAll()
	if err := c.clipboard.WriteAll(inj.Text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	if err := c.keys.Paste(ctx); err != nil {
		return fmt.Errorf("failed to paste expansion: %w", err)
	}

	if readErr != nil {
		return nil
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.restoreDelay):
	}
	if err := c.clipboard.WriteAll(previous); err != nil {
		c.logger.Debug("failed to restore clipboard", zap.Error(err))
	}
	return nil
}

// shouldPaste ignores a single trailing newline: that is the boundary the
// user typed, not part of the expansion.
func (c *ClipboardInjector) shouldPaste(text string) bool {
	if c.threshold <= 0 {
		return false
	}
	if strings.Contains(strings.TrimSuffix(text, "\n"), "\n") {
		return true
	}
	return uniseg.GraphemeClusterCount(text) >= c.threshold
}
