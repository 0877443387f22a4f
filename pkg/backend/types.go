package backend

import (
	"time"

	"keyword-research-go/pkg/report"
)

// KeywordMetricsData is one clustered keyword as the backend stores it
type KeywordMetricsData struct {
	Keyword   string      `json:"keyword"`
	URL       string      `json:"url,omitempty"` // top organic result
	ClusterID int         `json:"cluster_id"`
	Theme     string      `json:"theme"`
	Metrics   MetricsData `json:"metrics"`
}

// MetricsData contains all metrics for a keyword
type MetricsData struct {
	SearchVolume     int     `json:"search_volume"`
	CPC              float64 `json:"cpc"`
	Competition      float64 `json:"competition"`
	CompetitionLevel string  `json:"competition_level"`
	Difficulty       int     `json:"keyword_difficulty"`
	CommercialScore  int     `json:"commercial_score"`
	IsSeed           bool    `json:"is_seed"`
}

// ReportSubmission is the request body of a report publication
type ReportSubmission struct {
	RunID           string                 `json:"run_id"`
	Summary         report.RunSummary      `json:"summary"`
	AnalysisSummary report.AnalysisSummary `json:"analysis_summary"`
	ActionPlan      report.ActionPlan      `json:"action_plan"`
	Competitors     []string               `json:"competitors"`
	Keywords        []KeywordMetricsData   `json:"keywords"`
}

// BackendResponse represents the API response from backend
type BackendResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Config holds backend API configuration. Publishing is disabled when URL is empty.
type Config struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	EnableGzip bool          `mapstructure:"enable_gzip"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns the publishing defaults
func DefaultConfig() Config {
	return Config{
		EnableGzip: true,
		Timeout:    60 * time.Second,
	}
}
