// Package config provides configuration management for texpand.
// It handles loading and parsing of the YAML configuration file, applying
// defaults, and mapping environment overrides onto the Config struct.
package config

import (
	"time"
)

// Provider names accepted in BackendConfig.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Injector names accepted in HookConfig.Injector.
const (
	InjectorAuto    = "auto"
	InjectorXdotool = "xdotool"
	InjectorWtype   = "wtype"
)

// Config holds all texpand configuration.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"logLevel"`

	// DatabasePath overrides the location of the shortcut database.
	// Empty means ~/.texpand/shortcuts.db.
	DatabasePath string `yaml:"databasePath"`

	// ShutdownTimeout bounds how long shutdown waits for the listener to stop.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	Suggest SuggestConfig `yaml:"suggest"`
	Hook    HookConfig    `yaml:"hook"`
}

// SuggestConfig configures inline suggestions for the expansion field.
type SuggestConfig struct {
	// Debounce is the quiescence window before a suggestion is fetched.
	Debounce time.Duration `yaml:"debounce"`

	// Backends are tried in order; a backend that is unavailable falls
	// through to the next one. No backends disables suggestions.
	Backends []BackendConfig `yaml:"backends"`
}

// BackendConfig describes one text-generation backend.
type BackendConfig struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	BaseURL      string  `yaml:"baseURL"`
	MaxNewTokens int     `yaml:"maxNewTokens"`
	Temperature  float32 `yaml:"temperature"`
	TopP         float32 `yaml:"topP"`
}

// HookConfig configures the system-wide keyboard hook.
type HookConfig struct {
	// Devices lists input device paths to read. Empty means autodetect.
	Devices []string `yaml:"devices"`

	// Injector selects the text injection tool: auto, xdotool or wtype.
	Injector string `yaml:"injector"`

	// PasteThreshold is the expansion length (in runes) from which the
	// expansion is pasted through the clipboard instead of typed.
	// Zero disables clipboard pasting. Multi-line expansions are always pasted
	// when pasting is enabled.
	PasteThreshold int `yaml:"pasteThreshold"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        "info",
		ShutdownTimeout: 2 * time.Second,
		Suggest: SuggestConfig{
			Debounce: time.Second,
		},
		Hook: HookConfig{
			Injector:       InjectorAuto,
			PasteThreshold: 200,
		},
	}
}

// HasSuggestions reports whether at least one suggestion backend is configured.
func (c *Config) HasSuggestions() bool {
	return len(c.Suggest.Backends) > 0
}
