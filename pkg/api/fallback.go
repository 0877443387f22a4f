package api

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"keyword-research-go/pkg/keyword"
	"keyword-research-go/pkg/logger"
)

const (
	syntheticRelatedLimit = 50
	syntheticLevel        = "LOW"
)

// FallbackKeywords returns the seed keywords used when generation fails.
func FallbackKeywords(topic string) []string {
	return []string{
		topic + " guide",
		"best " + topic,
		topic + " tips",
		"how to " + topic,
		topic + " tools",
		topic + " services",
		topic + " solutions",
		topic + " software",
		topic + " reviews",
		topic + " comparison",
	}
}

// SyntheticData produces provider-shaped placeholder batches.
type SyntheticData struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticData creates a generator seeded from the clock.
func NewSyntheticData() *SyntheticData {
	return NewSyntheticDataWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSyntheticDataWithRand creates a generator drawing from rng.
func NewSyntheticDataWithRand(rng *rand.Rand) *SyntheticData {
	return &SyntheticData{rng: rng}
}

// Metrics returns one entry per keyword with volume in [100, 5100).
func (s *SyntheticData) Metrics(keywords []string) []keyword.MetricEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]keyword.MetricEntry, 0, len(keywords))
	for _, kw := range keywords {
		entries = append(entries, keyword.MetricEntry{
			Keyword:          kw,
			SearchVolume:     s.rng.Intn(5000) + 100,
			CPC:              s.rng.Float64()*3 + 0.5,
			Competition:      float64(s.rng.Intn(100)),
			CompetitionLevel: syntheticLevel,
		})
	}
	return entries
}

// Related returns five variants per seed, at most fifty entries, with volume in [50, 2050).
func (s *SyntheticData) Related(seeds []string) []keyword.MetricEntry {
	variants := make([]string, 0, len(seeds)*5)
	for _, seed := range seeds {
		variants = append(variants,
			seed+" tips",
			seed+" guide",
			"best "+seed,
			seed+" tools",
			"how to "+seed,
		)
	}
	if len(variants) > syntheticRelatedLimit {
		variants = variants[:syntheticRelatedLimit]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]keyword.MetricEntry, 0, len(variants))
	for _, kw := range variants {
		entries = append(entries, keyword.MetricEntry{
			Keyword:          kw,
			SearchVolume:     s.rng.Intn(2000) + 50,
			CPC:              s.rng.Float64()*2 + 0.3,
			Competition:      float64(s.rng.Intn(80)),
			CompetitionLevel: syntheticLevel,
		})
	}
	return entries
}

// SERP returns a two-result organic page for the first seed.
func (s *SyntheticData) SERP(seeds []string) []keyword.SerpResponse {
	if len(seeds) == 0 {
		return []keyword.SerpResponse{}
	}
	return []keyword.SerpResponse{{
		Keyword: seeds[0],
		Items: []keyword.SerpItem{
			{Type: "organic", URL: "https://example.com", Title: "Example Result", Position: 1},
			{Type: "organic", URL: "https://competitor.com", Title: "Competitor Result", Position: 2},
		},
	}}
}

// FallbackProvider wraps a MetricsProvider and substitutes synthetic data for
// any failed fetch. Cancellation is never masked.
type FallbackProvider struct {
	primary    MetricsProvider
	synthetic  *SyntheticData
	classifier ErrorClassifier
	log        *logger.Logger
}

// NewFallbackProvider decorates primary with the synthetic fallback
func NewFallbackProvider(primary MetricsProvider, synthetic *SyntheticData) *FallbackProvider {
	return &FallbackProvider{
		primary:    primary,
		synthetic:  synthetic,
		classifier: NewUpstreamErrorClassifier(),
		log:        logger.GetLogger().WithField("component", "fallback_provider"),
	}
}

func (p *FallbackProvider) SearchVolume(ctx context.Context, keywords []string) ([]keyword.MetricEntry, error) {
	entries, err := p.primary.SearchVolume(ctx, keywords)
	if err == nil {
		return entries, nil
	}
	if err := p.degrade(ctx, "search_volume", err); err != nil {
		return nil, err
	}
	return p.synthetic.Metrics(keywords), nil
}

func (p *FallbackProvider) RelatedKeywords(ctx context.Context, seeds []string) ([]keyword.MetricEntry, error) {
	entries, err := p.primary.RelatedKeywords(ctx, seeds)
	if err == nil {
		return entries, nil
	}
	if err := p.degrade(ctx, "related_keywords", err); err != nil {
		return nil, err
	}
	return p.synthetic.Related(seeds), nil
}

func (p *FallbackProvider) SERP(ctx context.Context, seeds []string) ([]keyword.SerpResponse, error) {
	responses, err := p.primary.SERP(ctx, seeds)
	if err == nil {
		return responses, nil
	}
	if err := p.degrade(ctx, "serp", err); err != nil {
		return nil, err
	}
	return p.synthetic.SERP(seeds), nil
}

// degrade logs the failure and returns a non-nil error only when the fetch must not fall back.
func (p *FallbackProvider) degrade(ctx context.Context, batch string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	p.log.WithError(err).WithFields(map[string]interface{}{
		"batch": batch,
		"kind":  p.classifier.Classify(err).String(),
	}).Warn("Upstream fetch failed, using synthetic data")
	return nil
}

// FallbackGenerator wraps a KeywordGenerator and returns FallbackKeywords on failure.
type FallbackGenerator struct {
	primary    KeywordGenerator
	classifier ErrorClassifier
	log        *logger.Logger
}

// NewFallbackGenerator decorates primary with the topic-based fallback
func NewFallbackGenerator(primary KeywordGenerator) *FallbackGenerator {
	return &FallbackGenerator{
		primary:    primary,
		classifier: NewUpstreamErrorClassifier(),
		log:        logger.GetLogger().WithField("component", "fallback_generator"),
	}
}

func (g *FallbackGenerator) Generate(ctx context.Context, topic, businessType string) ([]string, error) {
	if g.primary != nil {
		keywords, err := g.primary.Generate(ctx, topic, businessType)
		if err == nil {
			return keywords, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		g.log.WithError(err).WithField("kind", g.classifier.Classify(err).String()).
			Warn("Keyword generation failed, using fallback keywords")
	}
	return FallbackKeywords(topic), nil
}
