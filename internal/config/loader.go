package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file configuration.
const (
	EnvLogLevel     = "TEXPAND_LOG_LEVEL"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// Loader handles loading and parsing of texpand configuration files.
type Loader struct {
	logger *zap.Logger
	getenv func(string) string
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger,
		getenv: os.Getenv,
	}
}

// LoadResult contains the result of loading a configuration file.
type LoadResult struct {
	Config *Config
	Errors []error
}

// LoadFromFile loads configuration from a YAML file.
// Returns the configuration and any non-fatal errors encountered.
// If the file doesn't exist, returns default configuration with no error.
func (l *Loader) LoadFromFile(path string) (*LoadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Debug("config file not found, using defaults", zap.String("path", path))
			result := &LoadResult{Config: DefaultConfig(), Errors: []error{}}
			l.applyEnv(result.Config)
			return result, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.LoadFromString(string(content))
}

// LoadFromString loads configuration from YAML source.
// Parse errors are reported in LoadResult.Errors and defaults are kept.
func (l *Loader) LoadFromString(source string) (*LoadResult, error) {
	result := &LoadResult{
		Config: DefaultConfig(),
		Errors: []error{},
	}

	if strings.TrimSpace(source) != "" {
		if err := yaml.Unmarshal([]byte(source), result.Config); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("parse error: %w", err))
			result.Config = DefaultConfig()
		}
	}

	l.applyEnv(result.Config)
	result.Errors = append(result.Errors, validate(result.Config)...)

	return result, nil
}

// applyEnv fills values that are better kept out of the config file.
func (l *Loader) applyEnv(cfg *Config) {
	if level := l.getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}

	for i := range cfg.Suggest.Backends {
		backend := &cfg.Suggest.Backends[i]
		if backend.APIKey != "" {
			continue
		}
		switch backend.Provider {
		case ProviderOpenAI:
			backend.APIKey = l.getenv(EnvOpenAIAPIKey)
		case ProviderGemini:
			backend.APIKey = l.getenv(EnvGeminiAPIKey)
		}
	}
}

// validate repairs invalid values in place and reports what it changed.
func validate(cfg *Config) []error {
	var errs []error

	if _, err := zap.ParseAtomicLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("logLevel %q is invalid, using info", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.Suggest.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("suggest.debounce must be positive, using 1s"))
		cfg.Suggest.Debounce = DefaultConfig().Suggest.Debounce
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	switch cfg.Hook.Injector {
	case "":
		cfg.Hook.Injector = InjectorAuto
	case InjectorAuto, InjectorXdotool, InjectorWtype:
	default:
		errs = append(errs, fmt.Errorf("hook.injector %q is not supported, using auto", cfg.Hook.Injector))
		cfg.Hook.Injector = InjectorAuto
	}

	backends := cfg.Suggest.Backends[:0]
	for i, backend := range cfg.Suggest.Backends {
		switch backend.Provider {
		case ProviderOpenAI, ProviderGemini:
			backends = append(backends, backend)
		default:
			errs = append(errs, fmt.Errorf("suggest.backends[%d]: unknown provider %q", i, backend.Provider))
		}
	}
	cfg.Suggest.Backends = backends

	return errs
}
