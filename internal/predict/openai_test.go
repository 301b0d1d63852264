package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIGenerator(t *testing.T) {
	t.Run("requires key or base url", func(t *testing.T) {
		_, err := NewOpenAIGenerator(OpenAIConfig{})
		assert.Error(t, err)
	})

	t.Run("default model", func(t *testing.T) {
		generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key"})
		require.NoError(t, err)
		assert.Equal(t, "openai:"+DefaultOpenAIModel, generator.Name())
	})
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var request map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&request))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"text_completion","model":"local","choices":[{"text":"llo there","index":0,"finish_reason":"length"}]}`))
	}))
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{
		BaseURL: server.URL + "/v1",
		Model:   "local",
	})
	require.NoError(t, err)

	text, err := generator.Generate(context.Background(), "he", GenerateOptions{
		MaxNewTokens: 20,
		Temperature:  0.5,
		TopP:         0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "llo there", text)

	assert.Equal(t, "local", request["model"])
	assert.Equal(t, "he", request["prompt"])
	assert.Equal(t, float64(20), request["max_tokens"])
}

func TestOpenAIGenerator_GenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{BaseURL: server.URL + "/v1", Model: "local"})
	require.NoError(t, err)

	adapter := NewAdapter(AdapterConfig{Generator: generator})
	_, err = adapter.Complete(context.Background(), "he")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewGeminiGenerator(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), GeminiConfig{})
	assert.Error(t, err)

	generator, err := NewGeminiGenerator(context.Background(), GeminiConfig{APIKey: "test-key", Model: "gemini-test"})
	require.NoError(t, err)
	assert.Equal(t, "gemini:gemini-test", generator.Name())
}

func TestGeminiGenerator_Generate(t *testing.T) {
	var request struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		SystemInstruction map[string]any `json:"systemInstruction"`
		GenerationConfig  map[string]any `json:"generationConfig"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&request))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"llo there"}]},"finishReason":"MAX_TOKENS"}]}`))
	}))
	defer server.Close()

	generator, err := NewGeminiGenerator(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gemini-test",
	})
	require.NoError(t, err)

	text, err := generator.Generate(context.Background(), "he", GenerateOptions{
		MaxNewTokens: 20,
		Temperature:  0.5,
		TopP:         0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "llo there", text)

	require.Len(t, request.Contents, 1)
	require.Len(t, request.Contents[0].Parts, 1)
	assert.Equal(t, "he", request.Contents[0].Parts[0].Text)
	assert.NotEmpty(t, request.SystemInstruction)
	assert.Equal(t, float64(20), request.GenerationConfig["maxOutputTokens"])
	assert.Equal(t, float64(1), request.GenerationConfig["candidateCount"])
}

func TestGeminiGenerator_GenerateRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	generator, err := NewGeminiGenerator(context.Background(), GeminiConfig{APIKey: "bad-key", BaseURL: server.URL})
	require.NoError(t, err)

	adapter := NewAdapter(AdapterConfig{Generator: generator})
	_, err = adapter.Complete(context.Background(), "he")
	assert.ErrorIs(t, err, ErrUnavailable)
}
