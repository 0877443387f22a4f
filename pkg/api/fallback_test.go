package api

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"keyword-research-go/pkg/keyword"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) SearchVolume(ctx context.Context, keywords []string) ([]keyword.MetricEntry, error) {
	args := m.Called(ctx, keywords)
	entries, _ := args.Get(0).([]keyword.MetricEntry)
	return entries, args.Error(1)
}

func (m *mockProvider) RelatedKeywords(ctx context.Context, seeds []string) ([]keyword.MetricEntry, error) {
	args := m.Called(ctx, seeds)
	entries, _ := args.Get(0).([]keyword.MetricEntry)
	return entries, args.Error(1)
}

func (m *mockProvider) SERP(ctx context.Context, seeds []string) ([]keyword.SerpResponse, error) {
	args := m.Called(ctx, seeds)
	responses, _ := args.Get(0).([]keyword.SerpResponse)
	return responses, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, topic, businessType string) ([]string, error) {
	args := m.Called(ctx, topic, businessType)
	keywords, _ := args.Get(0).([]string)
	return keywords, args.Error(1)
}

func newTestSynthetic() *SyntheticData {
	return NewSyntheticDataWithRand(rand.New(rand.NewSource(7)))
}

func TestSyntheticData_Ranges(t *testing.T) {
	s := newTestSynthetic()

	metrics := s.Metrics([]string{"a", "b", "c"})
	require.Len(t, metrics, 3)
	for _, m := range metrics {
		assert.GreaterOrEqual(t, m.SearchVolume, 100)
		assert.Less(t, m.SearchVolume, 5100)
		assert.GreaterOrEqual(t, m.CPC, 0.5)
		assert.Less(t, m.CPC, 3.5)
		assert.Less(t, m.Competition, 100.0)
		assert.Equal(t, "LOW", m.CompetitionLevel)
	}

	seeds := make([]string, 12)
	for i := range seeds {
		seeds[i] = string(rune('a' + i))
	}
	related := s.Related(seeds)
	require.Len(t, related, 50)
	assert.Equal(t, "a tips", related[0].Keyword)
	assert.Equal(t, "how to a", related[4].Keyword)
	for _, r := range related {
		assert.GreaterOrEqual(t, r.SearchVolume, 50)
		assert.Less(t, r.SearchVolume, 2050)
		assert.Less(t, r.Competition, 80.0)
	}

	serp := s.SERP([]string{"first", "second"})
	require.Len(t, serp, 1)
	assert.Equal(t, "first", serp[0].Keyword)
	assert.Equal(t, "https://competitor.com", serp[0].Items[1].URL)
	assert.Empty(t, s.SERP(nil))
}

func TestSyntheticData_Deterministic(t *testing.T) {
	a := NewSyntheticDataWithRand(rand.New(rand.NewSource(42))).Metrics([]string{"x", "y"})
	b := NewSyntheticDataWithRand(rand.New(rand.NewSource(42))).Metrics([]string{"x", "y"})
	assert.Equal(t, a, b)
}

func TestFallbackProvider(t *testing.T) {
	ctx := context.Background()
	seeds := []string{"crm"}
	primary := new(mockProvider)
	primary.On("SearchVolume", ctx, seeds).Return([]keyword.MetricEntry{{Keyword: "crm", SearchVolume: 10}}, nil)
	primary.On("RelatedKeywords", ctx, seeds).Return(nil, errors.New("connection refused"))
	primary.On("SERP", ctx, seeds).Return(nil, &StatusError{Service: "DataForSEO", StatusCode: 500})

	p := NewFallbackProvider(primary, newTestSynthetic())

	metrics, err := p.SearchVolume(ctx, seeds)
	require.NoError(t, err)
	assert.Equal(t, 10, metrics[0].SearchVolume)

	related, err := p.RelatedKeywords(ctx, seeds)
	require.NoError(t, err)
	assert.Len(t, related, 5)

	serp, err := p.SERP(ctx, seeds)
	require.NoError(t, err)
	assert.Len(t, serp, 1)

	primary.AssertExpectations(t)
}

func TestFallbackProvider_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := new(mockProvider)
	primary.On("SearchVolume", ctx, []string{"crm"}).Return(nil, context.Canceled)

	_, err := NewFallbackProvider(primary, newTestSynthetic()).SearchVolume(ctx, []string{"crm"})
	assert.ErrorIs(t, err, context.Canceled)
	// the worker pool prefixes the batch name, so the error stays bare here
	assert.EqualError(t, err, "context canceled")
}

func TestFallbackGenerator(t *testing.T) {
	ctx := context.Background()

	ok := new(mockGenerator)
	ok.On("Generate", ctx, "crm", "saas").Return([]string{"best crm"}, nil)
	keywords, err := NewFallbackGenerator(ok).Generate(ctx, "crm", "saas")
	require.NoError(t, err)
	assert.Equal(t, []string{"best crm"}, keywords)

	failing := new(mockGenerator)
	failing.On("Generate", ctx, "crm", "saas").Return(nil, ErrNoKeywords)
	keywords, err = NewFallbackGenerator(failing).Generate(ctx, "crm", "saas")
	require.NoError(t, err)
	assert.Equal(t, FallbackKeywords("crm"), keywords)
	assert.Len(t, keywords, 10)
	assert.Equal(t, "how to crm", keywords[3])

	keywords, err = NewFallbackGenerator(nil).Generate(ctx, "crm", "saas")
	require.NoError(t, err)
	assert.Len(t, keywords, 10)
}
