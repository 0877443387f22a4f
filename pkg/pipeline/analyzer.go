package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"keyword-research-go/pkg/api"
	"keyword-research-go/pkg/cluster"
	"keyword-research-go/pkg/keyword"
	"keyword-research-go/pkg/logger"
	"keyword-research-go/pkg/report"
	"keyword-research-go/pkg/worker"
)

// ErrEmptyTopic is returned for a request without a topic.
var ErrEmptyTopic = errors.New("topic is required")

// Config collects the tunables of every stage of an analysis.
type Config struct {
	MinClusterVolume int // records at or below this volume are not clustered
	FetchTimeout     time.Duration
	Repository       keyword.RepositoryConfig
	Cluster          cluster.Config
	Report           report.Config
}

// DefaultConfig returns the settings of a standard analysis.
func DefaultConfig() Config {
	return Config{
		MinClusterVolume: 50,
		FetchTimeout:     90 * time.Second,
		Repository:       keyword.DefaultRepositoryConfig(),
		Cluster:          cluster.DefaultConfig(),
		Report:           report.DefaultConfig(),
	}
}

// Analyzer runs keyword analyses: generate seeds, fetch metrics, cluster, report.
type Analyzer struct {
	generator api.KeywordGenerator
	provider  api.MetricsProvider
	pool      *worker.WorkerPool
	ids       *idSource
	log       *logger.Logger

	mu     sync.RWMutex
	config Config
}

// NewAnalyzer creates an analyzer fetching upstream batches on pool, which must be started.
func NewAnalyzer(config Config, generator api.KeywordGenerator, provider api.MetricsProvider, pool *worker.WorkerPool, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Analyzer{
		generator: generator,
		provider:  provider,
		pool:      pool,
		ids:       newIDSource(),
		log:       log.WithField("component", "analyzer"),
		config:    config,
	}
}

// UpdateConfig replaces the configuration used by runs started afterwards.
func (a *Analyzer) UpdateConfig(config Config) {
	a.mu.Lock()
	a.config = config
	a.mu.Unlock()
	a.log.Info("Analysis configuration updated")
}

// Config returns the current configuration.
func (a *Analyzer) Config() Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// Analyze executes one run. Failures are returned as *RunError.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Run, error) {
	config := a.Config()
	started := time.Now()

	run := &Run{
		ID:        a.ids.next(started),
		Request:   Request{Topic: strings.TrimSpace(req.Topic), BusinessType: strings.TrimSpace(req.BusinessType)},
		StartedAt: started,
	}
	run.log = a.log.WithRun(run.ID)
	run.Steps = logger.NewStepReporter(totalSteps, run.log)

	if run.Request.Topic == "" {
		return nil, &RunError{RunID: run.ID, Step: StepValidate, Err: ErrEmptyTopic}
	}

	run.log.WithFields(map[string]interface{}{
		"topic":         run.Request.Topic,
		"business_type": run.Request.BusinessType,
	}).Info("Starting keyword analysis")

	run.Steps.Advance(1, "Generating seed keywords")
	seeds, err := a.generator.Generate(ctx, run.Request.Topic, run.Request.BusinessType)
	if err != nil {
		return nil, &RunError{RunID: run.ID, Step: StepGenerate, Err: err}
	}
	if len(seeds) == 0 {
		return nil, &RunError{RunID: run.ID, Step: StepGenerate, Err: api.ErrNoKeywords}
	}
	run.Seeds = seeds

	run.Steps.Advance(2, "Fetching keyword metrics and SERP data")
	batches, err := a.fetch(ctx, config, seeds)
	if err != nil {
		return nil, &RunError{RunID: run.ID, Step: StepFetch, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &RunError{RunID: run.ID, Step: StepCluster, Err: err}
	}
	run.Steps.Advance(3, "Clustering keywords")
	repo := keyword.NewRepository(config.Repository, run.log)
	repo.AddPrimary(batches.primary)
	repo.AddRelated(batches.related)
	repo.ApplySERP(batches.serp)

	clusters := cluster.NewBuilder(config.Cluster, run.log).Build(repo.WithVolumeAbove(config.MinClusterVolume))

	if err := ctx.Err(); err != nil {
		return nil, &RunError{RunID: run.ID, Step: StepReport, Err: err}
	}
	run.Steps.Advance(4, "Assembling report")
	run.Report = report.NewAssembler(config.Report, run.log).Assemble(run.Request.Topic, run.Request.BusinessType, clusters)
	run.FinishedAt = time.Now()

	run.log.WithFields(map[string]interface{}{
		"keywords": repo.Len(),
		"clusters": len(clusters),
		"duration": run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
	}).Info("Keyword analysis completed")
	return run, nil
}

type fetchedBatches struct {
	primary []keyword.MetricEntry
	related []keyword.MetricEntry
	serp    []keyword.SerpResponse
}

// fetch runs the three upstream batches concurrently and returns them only when all succeeded.
func (a *Analyzer) fetch(ctx context.Context, config Config, seeds []string) (*fetchedBatches, error) {
	var out fetchedBatches

	tasks := []worker.Task{
		{ID: "search_volume", Timeout: config.FetchTimeout, Fn: func(ctx context.Context) error {
			entries, err := a.provider.SearchVolume(ctx, seeds)
			out.primary = entries
			return err
		}},
		{ID: "related_keywords", Timeout: config.FetchTimeout, Fn: func(ctx context.Context) error {
			entries, err := a.provider.RelatedKeywords(ctx, seeds)
			out.related = entries
			return err
		}},
		{ID: "serp", Timeout: config.FetchTimeout, Fn: func(ctx context.Context) error {
			responses, err := a.provider.SERP(ctx, seeds)
			out.serp = responses
			return err
		}},
	}

	if err := a.pool.RunAll(ctx, tasks); err != nil {
		return nil, fmt.Errorf("fetch upstream batches: %w", err)
	}
	return &out, nil
}
