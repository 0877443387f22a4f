package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"keyword-research-go/pkg/keyword"
	"keyword-research-go/pkg/logger"
)

const (
	searchVolumePath    = "/v3/keywords_data/google_ads/search_volume/live"
	relatedKeywordsPath = "/v3/keywords_data/google_ads/keywords_for_keywords/live"
	serpPath            = "/v3/serp/google/organic/live/advanced"
	userDataPath        = "/v3/appendix/user_data"
)

// DataForSEOConfig holds the DataForSEO account and request settings
type DataForSEOConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	Login        string `mapstructure:"login"`
	Password     string `mapstructure:"password"`
	LocationCode int    `mapstructure:"location_code"`
	LanguageCode string `mapstructure:"language_code"`
	MaxKeywords  int    `mapstructure:"max_keywords"`
	RelatedSeeds int    `mapstructure:"related_seeds"`
	Device       string `mapstructure:"device"`
	OS           string `mapstructure:"os"`
}

// DefaultDataForSEOConfig returns the request settings for US English results.
func DefaultDataForSEOConfig() DataForSEOConfig {
	return DataForSEOConfig{
		BaseURL:      "https://api.dataforseo.com",
		LocationCode: 2840,
		LanguageCode: "en",
		MaxKeywords:  100,
		RelatedSeeds: 10,
		Device:       "desktop",
		OS:           "windows",
	}
}

// DataForSEOClient queries keyword metrics, related keywords and SERPs from DataForSEO
type DataForSEOClient struct {
	config   DataForSEOConfig
	conn     *ConnectionManager
	parser   *DataForSEOParser
	auth     string
	log      *logger.Logger
	security *logger.SecurityLogger
}

// NewDataForSEOClient creates a DataForSEO client on top of a shared connection manager
func NewDataForSEOClient(config DataForSEOConfig, conn *ConnectionManager) *DataForSEOClient {
	credentials := config.Login + ":" + config.Password
	log := logger.GetLogger().WithField("component", "dataforseo_client")

	return &DataForSEOClient{
		config:   config,
		conn:     conn,
		parser:   NewDataForSEOParser(),
		auth:     "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		log:      log,
		security: logger.NewSecurityLogger(log),
	}
}

type keywordsTask struct {
	Keywords        []string `json:"keywords"`
	LocationCode    int      `json:"location_code"`
	LanguageCode    string   `json:"language_code"`
	IncludeSerpInfo *bool    `json:"include_serp_info,omitempty"`
}

type serpTask struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Device       string `json:"device"`
	OS           string `json:"os"`
}

// SearchVolume returns the metrics of the given keywords.
func (c *DataForSEOClient) SearchVolume(ctx context.Context, keywords []string) ([]keyword.MetricEntry, error) {
	cleaned := c.cleanKeywords(keywords)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("no valid keywords for search volume lookup")
	}

	body, err := c.post(ctx, searchVolumePath, []keywordsTask{{
		Keywords:     cleaned,
		LocationCode: c.config.LocationCode,
		LanguageCode: c.config.LanguageCode,
	}})
	if err != nil {
		return nil, fmt.Errorf("search volume: %w", err)
	}

	entries, err := c.parser.ParseMetrics(body)
	if err != nil {
		return nil, fmt.Errorf("search volume: %w", err)
	}
	c.log.WithFields(map[string]interface{}{
		"requested": len(cleaned),
		"returned":  len(entries),
	}).Info("Search volume fetched")
	return entries, nil
}

// RelatedKeywords returns keyword ideas for the first seeds.
func (c *DataForSEOClient) RelatedKeywords(ctx context.Context, seeds []string) ([]keyword.MetricEntry, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed keywords for related keyword lookup")
	}
	if len(seeds) > c.config.RelatedSeeds {
		seeds = seeds[:c.config.RelatedSeeds]
	}

	includeSerp := false
	body, err := c.post(ctx, relatedKeywordsPath, []keywordsTask{{
		Keywords:        seeds,
		LocationCode:    c.config.LocationCode,
		LanguageCode:    c.config.LanguageCode,
		IncludeSerpInfo: &includeSerp,
	}})
	if err != nil {
		return nil, fmt.Errorf("related keywords: %w", err)
	}

	entries, err := c.parser.ParseMetrics(body)
	if err != nil {
		return nil, fmt.Errorf("related keywords: %w", err)
	}
	c.log.WithFields(map[string]interface{}{
		"seeds":    len(seeds),
		"returned": len(entries),
	}).Info("Related keywords fetched")
	return entries, nil
}

// SERP returns the organic result page of the first seed.
func (c *DataForSEOClient) SERP(ctx context.Context, seeds []string) ([]keyword.SerpResponse, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed keyword for SERP lookup")
	}

	body, err := c.post(ctx, serpPath, []serpTask{{
		Keyword:      seeds[0],
		LocationCode: c.config.LocationCode,
		LanguageCode: c.config.LanguageCode,
		Device:       c.config.Device,
		OS:           c.config.OS,
	}})
	if err != nil {
		return nil, fmt.Errorf("serp: %w", err)
	}

	responses, err := c.parser.ParseSERP(body)
	if err != nil {
		return nil, fmt.Errorf("serp: %w", err)
	}
	c.log.WithField("responses", len(responses)).Info("SERP data fetched")
	return responses, nil
}

// CheckCredentials verifies the account by reading its user data.
func (c *DataForSEOClient) CheckCredentials(ctx context.Context) (*AccountInfo, error) {
	if c.config.Login == "" || c.config.Password == "" {
		return nil, fmt.Errorf("DataForSEO login and password are required")
	}

	body, err := c.do(ctx, fasthttp.MethodGet, userDataPath, nil)
	if err != nil {
		return nil, fmt.Errorf("check credentials: %w", err)
	}

	info, err := c.parser.ParseUserData(body)
	if err != nil {
		return nil, fmt.Errorf("check credentials: %w", err)
	}
	c.security.SafeInfo("DataForSEO credentials verified", map[string]interface{}{
		"login":   info.Login,
		"balance": info.Balance,
	})
	return info, nil
}

func (c *DataForSEOClient) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, fasthttp.MethodPost, path, body)
}

func (c *DataForSEOClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	req.SetRequestURI(endpoint)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	start := time.Now()
	if err := c.conn.Do(ctx, req, resp); err != nil {
		c.security.SafeDebug("DataForSEO request failed", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("request failed: %w", err)
	}

	c.security.SafeDebug("DataForSEO request completed", map[string]interface{}{
		"endpoint":    endpoint,
		"status":      resp.StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{
			Service:    dataForSEOService,
			StatusCode: resp.StatusCode(),
			Message:    truncate(string(resp.Body()), 200),
		}
	}

	// resp is released on return
	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

// cleanKeywords lowercases and trims keywords, dropping empty, overlong and
// multi-line ones, up to the per-request limit.
func (c *DataForSEOClient) cleanKeywords(keywords []string) []string {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || len(kw) >= 100 || strings.ContainsAny(kw, "\n\t") {
			continue
		}
		cleaned = append(cleaned, kw)
		if len(cleaned) == c.config.MaxKeywords {
			break
		}
	}
	return cleaned
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
