package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"keyword-research-go/pkg/logger"
)

const (
	perplexityService   = "Perplexity"
	perplexityKeyPrefix = "pplx-"
)

// PerplexityConfig holds the Perplexity chat completion settings
type PerplexityConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	MaxKeywords int     `mapstructure:"max_keywords"`
}

// DefaultPerplexityConfig returns the completion settings used for seed generation.
func DefaultPerplexityConfig() PerplexityConfig {
	return PerplexityConfig{
		BaseURL:     "https://api.perplexity.ai",
		Model:       "sonar-pro",
		MaxTokens:   800,
		Temperature: 0.2,
		MaxKeywords: 25,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// PerplexityGenerator generates seed keywords through the Perplexity chat API
type PerplexityGenerator struct {
	config   PerplexityConfig
	conn     *ConnectionManager
	parser   *KeywordParser
	log      *logger.Logger
	security *logger.SecurityLogger
}

// NewPerplexityGenerator creates a Perplexity keyword generator
func NewPerplexityGenerator(config PerplexityConfig, conn *ConnectionManager) *PerplexityGenerator {
	log := logger.GetLogger().WithField("component", "perplexity_generator")
	return &PerplexityGenerator{
		config:   config,
		conn:     conn,
		parser:   NewKeywordParser(config.MaxKeywords),
		log:      log,
		security: logger.NewSecurityLogger(log),
	}
}

// Generate asks the model for seed keywords about topic.
func (g *PerplexityGenerator) Generate(ctx context.Context, topic, businessType string) ([]string, error) {
	if !strings.HasPrefix(g.config.APIKey, perplexityKeyPrefix) {
		return nil, fmt.Errorf("invalid Perplexity API key format: key should start with %q", perplexityKeyPrefix)
	}

	payload, err := json.Marshal(chatRequest{
		Model: g.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SeedSystemPrompt(businessType)},
			{Role: "user", Content: SeedUserPrompt(topic, businessType)},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(g.config.BaseURL, "/") + "/chat/completions")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.SetBody(payload)

	g.security.SafeDebug("Requesting seed keywords", map[string]interface{}{
		"api_key":       g.config.APIKey,
		"model":         g.config.Model,
		"business_type": businessType,
	})

	if err := g.conn.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("perplexity request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{
			Service:    perplexityService,
			StatusCode: resp.StatusCode(),
			Message:    truncate(string(resp.Body()), 200),
		}
	}

	var chat chatResponse
	if err := json.Unmarshal(resp.Body(), &chat); err != nil {
		return nil, &DecodeError{Service: perplexityService, Err: err}
	}
	if len(chat.Choices) == 0 {
		return nil, &DecodeError{Service: perplexityService, Err: fmt.Errorf("response has no choices")}
	}

	keywords, err := g.parser.Parse(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	g.log.WithField("keywords", len(keywords)).Info("Seed keywords generated")
	return keywords, nil
}
