package predict

import (
	"context"
	"errors"

	"github.com/atinylittleshell/texpand/internal/config"
	"go.uber.org/zap"
)

// Router tries backends in order and moves on to the next one only when a
// backend is unavailable. An empty answer is a real answer and is returned.
type Router struct {
	backends []Backend
	logger   *zap.Logger
}

// RouterConfig holds configuration for creating a Router.
type RouterConfig struct {
	// Backends in priority order.
	Backends []Backend

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewRouter creates a new Router with the given configuration.
func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Router{
		backends: cfg.Backends,
		logger:   logger,
	}
}

// Complete implements Backend.
func (r *Router) Complete(ctx context.Context, prompt string) (string, error) {
	if len(r.backends) == 0 {
		return "", &BackendError{Kind: KindUnavailable, Err: errors.New("no backends configured")}
	}

	var lastErr error
	for i, backend := range r.backends {
		text, err := backend.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !errors.Is(err, ErrUnavailable) || ctx.Err() != nil {
			return "", err
		}
		r.logger.Debug("backend unavailable, trying next",
			zap.Int("index", i),
			zap.Error(err),
		)
	}

	return "", lastErr
}

// Len returns the number of backends (for testing).
func (r *Router) Len() int {
	return len(r.backends)
}

// NewRouterFromConfig builds the generators listed in cfg.Suggest.Backends.
// Backends that cannot be created are skipped with a warning.
// Returns nil if no backend could be created, which disables suggestions.
func NewRouterFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	var backends []Backend
	for _, backendConfig := range cfg.Suggest.Backends {
		generator, err := newGenerator(ctx, backendConfig)
		if err != nil {
			logger.Warn("skipping suggestion backend",
				zap.String("provider", backendConfig.Provider),
				zap.Error(err),
			)
			continue
		}

		logger.Debug("adding suggestion backend", zap.String("generator", generator.Name()))
		backends = append(backends, NewAdapter(AdapterConfig{
			Generator: generator,
			Options: GenerateOptions{
				MaxNewTokens: backendConfig.MaxNewTokens,
				Temperature:  backendConfig.Temperature,
				TopP:         backendConfig.TopP,
			},
			Logger: logger,
		}))
	}

	if len(backends) == 0 {
		logger.Debug("no suggestion backend configured, suggestions disabled")
		return nil
	}

	return NewRouter(RouterConfig{
		Backends: backends,
		Logger:   logger,
	})
}

func newGenerator(ctx context.Context, cfg config.BackendConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, errors.New("unknown provider " + cfg.Provider)
	}
}
