package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// Generator produces free text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator generates text with the Gemini API.
type GeminiGenerator struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
	logger          *slog.Logger
}

// GeminiOption configures a GeminiGenerator.
type GeminiOption func(*GeminiGenerator)

// WithModel sets the model to use
func WithModel(model string) GeminiOption {
	return func(g *GeminiGenerator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithMaxOutputTokens caps the response length.
func WithMaxOutputTokens(n int32) GeminiOption {
	return func(g *GeminiGenerator) {
		g.maxOutputTokens = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) GeminiOption {
	return func(g *GeminiGenerator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGeminiGenerator creates a generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &GeminiGenerator{
		client:          client,
		model:           "gemini-2.5-flash",
		maxOutputTokens: 4096,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Model returns the configured model name.
func (g *GeminiGenerator) Model() string {
	return g.model
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.logger.DebugContext(ctx, "generating content",
		slog.String("model", g.model),
		slog.Int("prompt_chars", len(prompt)))

	config := &genai.GenerateContentConfig{}
	if g.maxOutputTokens > 0 {
		config.MaxOutputTokens = g.maxOutputTokens
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return extractText(result)
}

func extractText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("empty response")
	}
	return sb.String(), nil
}
