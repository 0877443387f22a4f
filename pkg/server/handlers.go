package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"keyword-research-go/pkg/pipeline"
	"keyword-research-go/pkg/report"
	"keyword-research-go/pkg/storage"
	"keyword-research-go/pkg/worker"
)

type healthResponse struct {
	Status        string                  `json:"status"`
	Uptime        string                  `json:"uptime"`
	ActiveWorkers int                     `json:"active_workers"`
	QueueSize     int                     `json:"queue_size"`
	Worker        *worker.MetricsSnapshot `json:"worker,omitempty"`
	Cache         storage.CacheStats      `json:"cache"`
}

type analysisRequest struct {
	Topic        string `json:"topic"`
	BusinessType string `json:"business_type"`
}

const publishTimeout = 30 * time.Second

func (s *Server) health(c *fiber.Ctx) error {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Cache:  s.runs.Stats(),
	}
	if s.pool != nil {
		snapshot := s.pool.Metrics()
		resp.Worker = &snapshot
		resp.ActiveWorkers = s.pool.ActiveWorkers()
		resp.QueueSize = s.pool.QueueSize()
	}
	return c.JSON(resp)
}

func (s *Server) createAnalysis(c *fiber.Ctx) error {
	var body analysisRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(body.Topic) == "" {
		return fiber.NewError(fiber.StatusBadRequest, pipeline.ErrEmptyTopic.Error())
	}

	run, err := s.analyzer.Analyze(c.UserContext(), pipeline.Request{
		Topic:        body.Topic,
		BusinessType: body.BusinessType,
	})
	if err != nil {
		var runErr *pipeline.RunError
		if errors.As(err, &runErr) && runErr.Step == pipeline.StepValidate {
			return fiber.NewError(fiber.StatusBadRequest, runErr.Err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	s.runs.Set(run.ID, run)
	s.publish(c.UserContext(), run)

	c.Location("/api/v1/analyses/" + run.ID)
	return c.Status(fiber.StatusCreated).JSON(run)
}

func (s *Server) getAnalysis(c *fiber.Ctx) error {
	run, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(run)
}

func (s *Server) getAnalysisText(c *fiber.Ctx) error {
	run, err := s.lookup(c)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return report.RenderText(c, run.Report)
}

func (s *Server) lookup(c *fiber.Ctx) (*pipeline.Run, error) {
	id := c.Params("id")
	run, ok := s.runs.Get(id)
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "analysis "+id+" not found")
	}
	return run, nil
}

// publish forwards the report when a backend is configured. Failures are logged only.
func (s *Server) publish(ctx context.Context, run *pipeline.Run) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := s.publisher.Publish(ctx, run.ID, run.Report); err != nil {
		s.log.WithError(err).WithField("run_id", run.ID).Warn("Failed to publish report")
	}
}
