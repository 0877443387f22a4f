package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"keyword-research-go/pkg/api"
	"keyword-research-go/pkg/logger"
	"keyword-research-go/pkg/report"
)

const (
	reportsPath    = "/api/v1/keyword-research/reports"
	backendService = "backend"
)

// Publisher submits finished reports to the backend API
type Publisher struct {
	config    Config
	conn      *api.ConnectionManager
	converter *DataConverter
	log       *logger.Logger
	security  *logger.SecurityLogger
}

// NewPublisher creates a report publisher sharing conn with the upstream clients
func NewPublisher(config Config, conn *api.ConnectionManager) (*Publisher, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("backend API key is required - set KWR_BACKEND_API_KEY environment variable")
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	log := logger.GetLogger().WithField("component", "backend_publisher")
	return &Publisher{
		config:    config,
		conn:      conn,
		converter: NewDataConverter(),
		log:       log,
		security:  logger.NewSecurityLogger(log),
	}, nil
}

// Publish posts the report of run runID and fails unless the backend answers code 0
func (p *Publisher) Publish(ctx context.Context, runID string, r *report.Report) (*BackendResponse, error) {
	submission := p.converter.ConvertReport(runID, r)

	jsonData, err := json.Marshal(submission)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	requestBody := jsonData
	contentEncoding := ""
	if p.config.EnableGzip {
		requestBody, err = compress(jsonData)
		if err != nil {
			return nil, err
		}
		contentEncoding = "gzip"

		p.log.WithFields(map[string]interface{}{
			"original_size":     len(jsonData),
			"compressed_size":   len(requestBody),
			"compression_ratio": fmt.Sprintf("%.2f%%", float64(len(requestBody))/float64(len(jsonData))*100),
		}).Debug("Report compressed with GZIP")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	url := strings.TrimRight(p.config.URL, "/") + reportsPath
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-API-Key", p.config.APIKey)
	if contentEncoding != "" {
		req.Header.Set("Content-Encoding", contentEncoding)
	}
	req.SetBody(requestBody)

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	if err := p.conn.Do(ctx, req, resp); err != nil {
		p.security.SafeWarn("Backend request failed", map[string]interface{}{
			"backend_url": url,
			"run_id":      runID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("publish report: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		p.security.SafeError("Backend rejected request", nil, map[string]interface{}{
			"backend_url": url,
			"status":      resp.StatusCode(),
		})
		return nil, &api.StatusError{
			Service:    backendService,
			StatusCode: resp.StatusCode(),
			Message:    string(resp.Body()),
		}
	}

	var backendResp BackendResponse
	if err := json.Unmarshal(resp.Body(), &backendResp); err != nil {
		return nil, &api.DecodeError{Service: backendService, Err: err}
	}

	if backendResp.Code != 0 {
		return &backendResp, fmt.Errorf("backend rejected report: code %d: %s", backendResp.Code, backendResp.Message)
	}

	p.log.WithFields(map[string]interface{}{
		"run_id":   runID,
		"keywords": len(submission.Keywords),
	}).Info("Report published to backend")
	return &backendResp, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)

	if _, err := gzipWriter.Write(data); err != nil {
		gzipWriter.Close()
		return nil, fmt.Errorf("failed to write to gzip: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}
