package predict

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// continuationInstruction turns a chat model into a plain continuation model.
const continuationInstruction = `Continue the user's text. Reply with the continuation only, without repeating the text you were given.
If the text ends in the middle of a word, your reply must start with the rest of that word.`

// GeminiGenerator implements Generator using the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// GeminiConfig holds configuration for creating a GeminiGenerator.
type GeminiConfig struct {
	APIKey string

	// BaseURL overrides the API endpoint (proxies, tests).
	BaseURL string

	// Model defaults to DefaultGeminiModel.
	Model string
}

// NewGeminiGenerator creates a new Gemini generator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini generator requires an API key")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiGenerator{
		client: client,
		model:  model,
	}, nil
}

// Name returns the generator name.
func (g *GeminiGenerator) Name() string {
	return "gemini:" + g.model
}

// Generate asks the model to continue prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(continuationInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(opts.Temperature),
		TopP:              genai.Ptr(opts.TopP),
		MaxOutputTokens:   int32(opts.MaxNewTokens),
		CandidateCount:    1,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
