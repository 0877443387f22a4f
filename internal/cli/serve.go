package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"keyword-research-go/internal/bootstrap"
	"keyword-research-go/internal/config"
	"keyword-research-go/pkg/pipeline"
	"keyword-research-go/pkg/server"
	"keyword-research-go/pkg/storage"
)

// NewServeCommand returns the command running the HTTP API.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve analyses over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "listen port")
	return cmd
}

// ExecuteServer runs the serve command on its own, as the server binary does.
func ExecuteServer() error {
	cmd := NewServeCommand()
	cmd.Use = "keyword-research-server"
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	addGlobalFlags(cmd)
	return cmd.Execute()
}

func runServe(cmd *cobra.Command, args []string) error {
	manager, cfg, err := loadConfig(cmd, map[string]string{"server.port": "port"})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	runs := storage.NewMemoryCacheWithTTL[*pipeline.Run](cfg.Cache.Size, cfg.Cache.TTL)
	defer runs.Close()

	srv := server.New(server.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
	}, app.Analyzer, runs, app.Pool, publisherOrNil(app), app.Log)

	if configPath != "" {
		err := manager.Watch(func(updated *config.Config, e fsnotify.Event) {
			app.Analyzer.UpdateConfig(updated.Analysis.PipelineConfig())
		})
		if err != nil {
			app.Log.WithError(err).Warn("Config hot reload disabled")
		}
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- srv.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	app.Log.Info("Shutdown signal received, stopping HTTP server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	app.Log.Info("HTTP server stopped")
	return nil
}

// publisherOrNil keeps a nil *backend.Publisher from becoming a non-nil interface.
func publisherOrNil(app *bootstrap.App) server.Publisher {
	if app.Publisher == nil {
		return nil
	}
	return app.Publisher
}
