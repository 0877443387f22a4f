package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"keyword-research-go/pkg/logger"
	"keyword-research-go/pkg/report"
)

// Export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const reportFilePrefix = "keyword-research-report-"

// ReportExporter writes analysis reports to disk
type ReportExporter struct {
	now func() time.Time
	log *logger.Logger
}

// NewReportExporter creates a new report exporter
func NewReportExporter() *ReportExporter {
	return &ReportExporter{
		now: time.Now,
		log: logger.GetLogger().WithField("component", "report_exporter"),
	}
}

// FileName returns the dated file name of a report in format.
func (re *ReportExporter) FileName(format string) string {
	return reportFilePrefix + re.now().Format("2006-01-02") + "." + format
}

// Export writes r into outputDir as indented JSON or YAML and returns the file path.
// An existing report of the same day is overwritten.
func (re *ReportExporter) Export(ctx context.Context, r *report.Report, outputDir, format string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no report to export")
	}

	data, err := encodeReport(r, format)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filePath := filepath.Join(outputDir, re.FileName(format))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	re.log.WithFields(map[string]interface{}{
		"path":   filePath,
		"format": format,
		"bytes":  len(data),
	}).Info("Report exported")
	return filePath, nil
}

func encodeReport(r *report.Report, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode report as JSON: %w", err)
		}
		return data, nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("failed to encode report as YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode report as YAML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}
