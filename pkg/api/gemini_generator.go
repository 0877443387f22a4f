package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"keyword-research-go/pkg/logger"
)

// GeminiConfig holds the Gemini model settings
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	MaxKeywords int     `mapstructure:"max_keywords"`
}

// DefaultGeminiConfig returns the model settings used for seed generation.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		Model:       "gemini-2.5-flash-lite",
		MaxTokens:   800,
		Temperature: 0.2,
		MaxKeywords: 25,
	}
}

// contentGenerator is the part of *genai.GenerativeModel the generator uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator generates seed keywords with a Gemini model
type GeminiGenerator struct {
	client *genai.Client
	model  contentGenerator
	parser *KeywordParser
	log    *logger.Logger
}

// NewGeminiGenerator creates a Gemini client configured for JSON output
func NewGeminiGenerator(ctx context.Context, config GeminiConfig) (*GeminiGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(config.Model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(float32(config.Temperature))
	model.SetMaxOutputTokens(int32(config.MaxTokens))

	return &GeminiGenerator{
		client: client,
		model:  model,
		parser: NewKeywordParser(config.MaxKeywords),
		log:    logger.GetLogger().WithField("component", "gemini_generator"),
	}, nil
}

// Generate asks the model for seed keywords about topic.
func (g *GeminiGenerator) Generate(ctx context.Context, topic, businessType string) ([]string, error) {
	prompt := SeedSystemPrompt(businessType) + "\n\n" + SeedUserPrompt(topic, businessType)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	content := responseText(resp)
	if content == "" {
		return nil, &DecodeError{Service: "Gemini", Err: fmt.Errorf("empty response")}
	}

	keywords, err := g.parser.Parse(content)
	if err != nil {
		return nil, err
	}

	g.log.WithField("keywords", len(keywords)).Info("Seed keywords generated")
	return keywords, nil
}

// Close releases the underlying client
func (g *GeminiGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
