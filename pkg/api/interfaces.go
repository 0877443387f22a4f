package api

import (
	"context"

	"keyword-research-go/pkg/keyword"
)

// MetricsProvider fetches the three upstream batches of an analysis.
type MetricsProvider interface {
	SearchVolume(ctx context.Context, keywords []string) ([]keyword.MetricEntry, error)
	RelatedKeywords(ctx context.Context, seeds []string) ([]keyword.MetricEntry, error)
	SERP(ctx context.Context, seeds []string) ([]keyword.SerpResponse, error)
}

// KeywordGenerator produces seed keywords for a topic.
type KeywordGenerator interface {
	Generate(ctx context.Context, topic, businessType string) ([]string, error)
}

// AccountInfo is the provider account behind a set of credentials.
type AccountInfo struct {
	Login   string  `json:"login"`
	Balance float64 `json:"balance"`
}

// CredentialChecker verifies provider credentials without spending quota.
type CredentialChecker interface {
	CheckCredentials(ctx context.Context) (*AccountInfo, error)
}
