package predict

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// mockGenerator implements Generator for testing.
type mockGenerator struct {
	output    string
	err       error
	callCount int
	lastInput string
	lastOpts  GenerateOptions
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	m.callCount++
	m.lastInput = prompt
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.output, nil
}

func (m *mockGenerator) Name() string {
	return "mock"
}

func TestBackendError_Is(t *testing.T) {
	err := &BackendError{Kind: KindUnavailable, Err: errors.New("connection refused")}

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.False(t, errors.Is(err, ErrEmpty))
	assert.Contains(t, err.Error(), "unavailable")
	assert.Contains(t, err.Error(), "connection refused")

	wrapped := &BackendError{Kind: KindEmpty}
	assert.True(t, errors.Is(wrapped, ErrEmpty))
	assert.Equal(t, "suggestion backend empty", wrapped.Error())
}

func TestNewAdapter(t *testing.T) {
	t.Run("default options", func(t *testing.T) {
		adapter := NewAdapter(AdapterConfig{Generator: &mockGenerator{}})
		assert.Equal(t, DefaultGenerateOptions(), adapter.options)
		assert.NotNil(t, adapter.logger)
	})

	t.Run("overrides non-zero options", func(t *testing.T) {
		adapter := NewAdapter(AdapterConfig{
			Generator: &mockGenerator{},
			Options:   GenerateOptions{MaxNewTokens: 8},
		})
		assert.Equal(t, 8, adapter.options.MaxNewTokens)
		assert.Equal(t, float32(0.5), adapter.options.Temperature)
		assert.Equal(t, float32(0.9), adapter.options.TopP)
	})
}

func TestAdapter_Complete(t *testing.T) {
	t.Run("returns prompt followed by continuation", func(t *testing.T) {
		generator := &mockGenerator{output: "llo there, how are you"}
		adapter := NewAdapter(AdapterConfig{Generator: generator, Logger: zaptest.NewLogger(t)})

		text, err := adapter.Complete(context.Background(), "he")
		require.NoError(t, err)
		assert.Equal(t, "hello there, how are you", text)
		assert.Equal(t, "he", generator.lastInput)
		assert.Equal(t, 20, generator.lastOpts.MaxNewTokens)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		adapter := NewAdapter(AdapterConfig{Generator: &mockGenerator{output: " world \n"}})

		text, err := adapter.Complete(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello world", text)
	})

	t.Run("generator failure is unavailable", func(t *testing.T) {
		adapter := NewAdapter(AdapterConfig{Generator: &mockGenerator{err: errors.New("timeout")}})

		_, err := adapter.Complete(context.Background(), "he")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("blank output is empty", func(t *testing.T) {
		adapter := NewAdapter(AdapterConfig{Generator: &mockGenerator{output: "  \n"}})

		_, err := adapter.Complete(context.Background(), "he")
		assert.ErrorIs(t, err, ErrEmpty)
		assert.NotErrorIs(t, err, ErrUnavailable)
	})

	t.Run("nil generator is unavailable", func(t *testing.T) {
		adapter := NewAdapter(AdapterConfig{})

		_, err := adapter.Complete(context.Background(), "he")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
