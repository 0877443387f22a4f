package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"keyword-research-go/internal/config"
	"keyword-research-go/pkg/api"
	"keyword-research-go/pkg/backend"
	"keyword-research-go/pkg/logger"
	"keyword-research-go/pkg/pipeline"
	"keyword-research-go/pkg/storage"
	"keyword-research-go/pkg/worker"
)

// App holds the long-lived components built from one configuration.
type App struct {
	Config     *config.Config
	Log        *logger.Logger
	Conn       *api.ConnectionManager
	Pool       *worker.WorkerPool
	DataForSEO *api.DataForSEOClient
	Analyzer   *pipeline.Analyzer
	Exporter   *storage.ReportExporter
	Publisher  *backend.Publisher // nil when no backend is configured

	closers []func() error
}

// New installs the configured logger and wires every component. The worker
// pool is started; Close stops it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.New(cfg.Logger)
	logger.SetLogger(log)

	app := &App{
		Config:   cfg,
		Log:      log.WithField("component", "app"),
		Conn:     api.NewConnectionManager(cfg.Providers.HTTP),
		Exporter: storage.NewReportExporter(),
	}
	app.closers = append(app.closers, func() error {
		app.Conn.Close()
		return nil
	})

	generator, err := app.newGenerator(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.DataForSEO = api.NewDataForSEOClient(cfg.Providers.DataForSEO, app.Conn)
	provider := api.NewFallbackProvider(app.DataForSEO, api.NewSyntheticData())

	app.Pool = worker.NewWorkerPool(cfg.Worker)
	if err := app.Pool.Start(); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to start worker pool: %w", err)
	}
	app.closers = append(app.closers, app.Pool.Stop)

	app.Analyzer = pipeline.NewAnalyzer(cfg.Analysis.PipelineConfig(), generator, provider, app.Pool, log)

	if cfg.Backend.URL != "" {
		app.Publisher, err = backend.NewPublisher(cfg.Backend, app.Conn)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to create backend publisher: %w", err)
		}
	}

	app.Log.WithFields(map[string]interface{}{
		"generator": cfg.Providers.Generator,
		"workers":   cfg.Worker.MaxWorkers,
		"backend":   app.Publisher != nil,
	}).Debug("Application wired")
	return app, nil
}

// newGenerator returns the configured seed generator behind the topic fallback.
func (a *App) newGenerator(ctx context.Context) (api.KeywordGenerator, error) {
	providers := a.Config.Providers
	var primary api.KeywordGenerator

	switch providers.Generator {
	case "perplexity":
		primary = api.NewPerplexityGenerator(providers.Perplexity, a.Conn)
	case "gemini":
		if providers.Gemini.APIKey == "" {
			a.Log.Warn("Gemini API key not set, seed keywords will come from the topic")
			break
		}
		gemini, err := api.NewGeminiGenerator(ctx, providers.Gemini)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini generator: %w", err)
		}
		a.closers = append(a.closers, gemini.Close)
		primary = gemini
	}

	return api.NewFallbackGenerator(primary), nil
}

// Close releases components in reverse creation order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
