package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"keyword-research-go/pkg/logger"
)

func testPerplexityConfig() PerplexityConfig {
	cfg := DefaultPerplexityConfig()
	cfg.BaseURL = "http://perplexity.test"
	cfg.APIKey = "pplx-test-key"
	return cfg
}

func TestPerplexityGenerator_Generate(t *testing.T) {
	var captured chatRequest
	var auth string

	conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
		auth = string(ctx.Request.Header.Peek("Authorization"))
		_ = json.Unmarshal(ctx.PostBody(), &captured)
		ctx.SetBodyString(`{"choices":[{"message":{"role":"assistant","content":"[\"best crm software\", \"crm pricing\"]"}}]}`)
	})
	gen := NewPerplexityGenerator(testPerplexityConfig(), conn)

	keywords, err := gen.Generate(context.Background(), "crm", "saas")
	require.NoError(t, err)
	assert.Equal(t, []string{"best crm software", "crm pricing"}, keywords)

	assert.Equal(t, "Bearer pplx-test-key", auth)
	assert.Equal(t, "sonar-pro", captured.Model)
	assert.Equal(t, 800, captured.MaxTokens)
	assert.Equal(t, 0.2, captured.Temperature)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, SeedSystemPrompt("saas"), captured.Messages[0].Content)
	assert.Contains(t, captured.Messages[1].Content, `topic "crm"`)
}

func TestPerplexityGenerator_RejectsMalformedKey(t *testing.T) {
	cfg := testPerplexityConfig()
	cfg.APIKey = "sk-wrong"
	gen := NewPerplexityGenerator(cfg, NewConnectionManager(DefaultConnectionConfig()))

	_, err := gen.Generate(context.Background(), "crm", "saas")
	require.Error(t, err)
	assert.Equal(t, ErrorKindAuth, NewUpstreamErrorClassifier().Classify(err))
}

func TestPerplexityGenerator_StatusError(t *testing.T) {
	conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
		ctx.SetBodyString(`{"error":"slow down"}`)
	})
	gen := NewPerplexityGenerator(testPerplexityConfig(), conn)

	_, err := gen.Generate(context.Background(), "crm", "saas")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, fasthttp.StatusTooManyRequests, statusErr.StatusCode)
}

type fakeModel struct {
	resp   *genai.GenerateContentResponse
	err    error
	prompt string
}

func (m *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if text, ok := parts[0].(genai.Text); ok {
			m.prompt = string(text)
		}
	}
	return m.resp, m.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}},
		}},
	}
}

func TestGeminiGenerator_Generate(t *testing.T) {
	model := &fakeModel{resp: textResponse(`["crm for startups", "crm tools"]`)}
	gen := &GeminiGenerator{model: model, parser: NewKeywordParser(25), log: logger.Nop()}

	keywords, err := gen.Generate(context.Background(), "crm", "saas")
	require.NoError(t, err)
	assert.Equal(t, []string{"crm for startups", "crm tools"}, keywords)
	assert.Contains(t, model.prompt, SeedSystemPrompt("saas"))
	assert.NoError(t, gen.Close())
}

func TestGeminiGenerator_Errors(t *testing.T) {
	gen := &GeminiGenerator{model: &fakeModel{err: errors.New("quota")}, parser: NewKeywordParser(25), log: logger.Nop()}
	_, err := gen.Generate(context.Background(), "crm", "saas")
	assert.Error(t, err)

	gen.model = &fakeModel{resp: &genai.GenerateContentResponse{}}
	_, err = gen.Generate(context.Background(), "crm", "saas")
	assert.Error(t, err)
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), DefaultGeminiConfig())
	assert.Error(t, err)
}
