// Package predict wraps text-generation backends behind a single fallible
// completion call used for inline suggestions. It includes OpenAI-compatible
// and Gemini generators and a router that falls back between them.
package predict

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrorKind classifies backend failures.
type ErrorKind int

const (
	// KindUnavailable means the network or model could not be reached.
	KindUnavailable ErrorKind = iota
	// KindEmpty means the backend answered without a usable continuation.
	KindEmpty
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

var (
	ErrUnavailable = &BackendError{Kind: KindUnavailable}
	ErrEmpty       = &BackendError{Kind: KindEmpty}
)

// BackendError is returned by every Backend failure.
type BackendError struct {
	Kind ErrorKind
	Err  error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return "suggestion backend " + e.Kind.String()
	}
	return fmt.Sprintf("suggestion backend %s: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is matches any BackendError of the same kind, so callers can write
// errors.Is(err, predict.ErrUnavailable).
func (e *BackendError) Is(target error) bool {
	var other *BackendError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// Backend produces a continuation for prompt. Implementations may be slow and
// must not be called from the UI goroutine.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenerateOptions are the sampling parameters passed to a Generator.
type GenerateOptions struct {
	MaxNewTokens int
	Temperature  float32
	TopP         float32
}

// DefaultGenerateOptions keeps continuations short: suggestions only ever use
// a single word of the output.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		MaxNewTokens: 20,
		Temperature:  0.5,
		TopP:         0.9,
	}
}

// Generator is a raw text-generation call. It returns only the newly
// generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Name() string
}

// Adapter turns a Generator into a Backend with uniform error semantics.
type Adapter struct {
	generator Generator
	options   GenerateOptions
	logger    *zap.Logger
}

// AdapterConfig holds configuration for creating an Adapter.
type AdapterConfig struct {
	Generator Generator

	// Options override the sampling defaults field by field; zero values keep
	// the default.
	Options GenerateOptions

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewAdapter creates a new Adapter with the given configuration.
func NewAdapter(cfg AdapterConfig) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	options := DefaultGenerateOptions()
	if cfg.Options.MaxNewTokens > 0 {
		options.MaxNewTokens = cfg.Options.MaxNewTokens
	}
	if cfg.Options.Temperature > 0 {
		options.Temperature = cfg.Options.Temperature
	}
	if cfg.Options.TopP > 0 {
		options.TopP = cfg.Options.TopP
	}

	return &Adapter{
		generator: cfg.Generator,
		options:   options,
		logger:    logger,
	}
}

// Complete returns the prompt followed by the generated continuation,
// trimmed. Keeping the prompt in front lets a continuation that finishes the
// last word ("he" + "llo there") be read back as whole words.
func (a *Adapter) Complete(ctx context.Context, prompt string) (string, error) {
	if a.generator == nil {
		return "", &BackendError{Kind: KindUnavailable, Err: errors.New("no generator configured")}
	}

	generated, err := a.generator.Generate(ctx, prompt, a.options)
	if err != nil {
		a.logger.Debug("generation failed",
			zap.String("generator", a.generator.Name()),
			zap.Error(err),
		)
		return "", &BackendError{Kind: KindUnavailable, Err: err}
	}

	if strings.TrimSpace(generated) == "" {
		return "", &BackendError{Kind: KindEmpty}
	}

	text := strings.TrimSpace(prompt + generated)
	a.logger.Debug("generation result",
		zap.String("generator", a.generator.Name()),
		zap.String("prompt", prompt),
		zap.String("text", text),
	)
	return text, nil
}
