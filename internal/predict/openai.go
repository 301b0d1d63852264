package predict

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is a completions-endpoint model; chat-only models are
// rejected by the completions API.
const DefaultOpenAIModel = openai.GPT3Dot5TurboInstruct

// OpenAIGenerator implements Generator using the OpenAI completions API or any
// compatible server (llama.cpp, vLLM, Ollama's OpenAI endpoint, ...).
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// OpenAIConfig holds configuration for creating an OpenAIGenerator.
type OpenAIConfig struct {
	APIKey string

	// BaseURL points at a compatible server. Empty means api.openai.com.
	BaseURL string

	// Model defaults to DefaultOpenAIModel.
	Model string

	// HTTPClient overrides the transport (for tests).
	HTTPClient *http.Client
}

// NewOpenAIGenerator creates a new OpenAI generator. An API key is required
// unless a custom base URL is set, since local servers usually need none.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("OpenAI generator requires an API key")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Name returns the generator name.
func (g *OpenAIGenerator) Name() string {
	return "openai:" + g.model
}

// Generate requests a plain text continuation of prompt.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := g.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       g.model,
		Prompt:      prompt,
		MaxTokens:   opts.MaxNewTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		N:           1,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Text, nil
}
