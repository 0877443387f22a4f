package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"keyword-research-go/pkg/backend"
	"keyword-research-go/pkg/logger"
	"keyword-research-go/pkg/pipeline"
	"keyword-research-go/pkg/report"
	"keyword-research-go/pkg/storage"
	"keyword-research-go/pkg/worker"
)

// Analyzer runs one keyword analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*pipeline.Run, error)
}

// Publisher forwards finished reports to an external backend.
type Publisher interface {
	Publish(ctx context.Context, runID string, r *report.Report) (*backend.BackendResponse, error)
}

// Config holds the HTTP server settings
type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

// Server exposes analyses over HTTP
type Server struct {
	app       *fiber.App
	analyzer  Analyzer
	runs      *storage.MemoryCache[*pipeline.Run]
	pool      *worker.WorkerPool
	publisher Publisher
	started   time.Time
	log       *logger.Logger
}

// New builds the fiber app. pool and publisher may be nil.
func New(config Config, analyzer Analyzer, runs *storage.MemoryCache[*pipeline.Run], pool *worker.WorkerPool, publisher Publisher, log *logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &Server{
		analyzer:  analyzer,
		runs:      runs,
		pool:      pool,
		publisher: publisher,
		started:   time.Now(),
		log:       log.WithField("component", "http_server"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "keyword-research-go",
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		BodyLimit:             config.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.logRequests)

	s.app.Get("/health", s.health)
	v1 := s.app.Group("/api/v1")
	v1.Post("/analyses", s.createAnalysis)
	v1.Get("/analyses/:id", s.getAnalysis)
	v1.Get("/analyses/:id/report.txt", s.getAnalysisText)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("HTTP server listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.Path()).Error("Request failed")
	}
	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.WithFields(map[string]interface{}{
		"method":   c.Method(),
		"path":     c.Path(),
		"status":   c.Response().StatusCode(),
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Debug("Request handled")
	return err
}
