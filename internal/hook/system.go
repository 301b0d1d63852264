package hook

import (
	"fmt"

	"go.uber.org/zap"
)

// KeyboardConfig holds configuration for creating a Keyboard.
type KeyboardConfig struct {
	// Devices are evdev paths to read. Empty means autodetect and follow
	// hot-plugged keyboards.
	Devices []string

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// Config holds configuration for the system hook.
type Config struct {
	Devices []string

	// Injector is "auto", "xdotool" or "wtype".
	Injector string

	// PasteThreshold is the expansion length, in characters, from which text
	// is pasted through the clipboard instead of typed. Zero disables pasting.
	PasteThreshold int

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewSystem builds the hook for the running desktop session.
func NewSystem(cfg Config) (*System, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	keyboard, err := NewKeyboard(KeyboardConfig{
		Devices: cfg.Devices,
		Logger:  logger.Named("keyboard"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create keyboard source: %w", err)
	}

	keys := NewCommandInjector(CommandInjectorConfig{
		Tool:   cfg.Injector,
		Logger: logger.Named("inject"),
	})

	var injector Injector = keys
	if cfg.PasteThreshold > 0 {
		injector = NewClipboardInjector(ClipboardInjectorConfig{
			Keys:      keys,
			Threshold: cfg.PasteThreshold,
			Logger:    logger.Named("inject"),
		})
	}

	logger.Debug("system hook ready", zap.String("injector", keys.Tool()))
	return &System{
		Source:   keyboard,
		Injector: injector,
	}, nil
}
