package report

import (
	"fmt"
	"math"
	"time"

	"keyword-research-go/pkg/cluster"
	"keyword-research-go/pkg/logger"
)

// Thresholds select the quick-win and high-value clusters.
type Thresholds struct {
	QuickWinMaxDifficulty float64 `mapstructure:"quick_win_max_difficulty"`
	QuickWinMinVolume     int     `mapstructure:"quick_win_min_volume"`
	HighValueMinVolume    int     `mapstructure:"high_value_min_volume"`
}

// Config controls report assembly. Report and Plan thresholds are independent.
type Config struct {
	Report         Thresholds
	Plan           Thresholds
	TrafficRate    float64 // share of search volume expected as traffic
	TopClusters    int
	ListLimit      int // cap for quick wins and high value lists
	MaxCompetitors int
}

// DefaultConfig returns the assembly settings of a standard analysis.
func DefaultConfig() Config {
	return Config{
		Report: Thresholds{
			QuickWinMaxDifficulty: 30,
			QuickWinMinVolume:     100,
			HighValueMinVolume:    1000,
		},
		Plan: Thresholds{
			QuickWinMaxDifficulty: 30,
			QuickWinMinVolume:     500,
			HighValueMinVolume:    2000,
		},
		TrafficRate:    0.30,
		TopClusters:    5,
		ListLimit:      10,
		MaxCompetitors: 8,
	}
}

// AnalysisSummary holds the headline numbers of a report.
type AnalysisSummary struct {
	TotalMonthlySearchVolume         int     `json:"total_monthly_search_volume" yaml:"total_monthly_search_volume"`
	EstimatedMonthlyTrafficPotential int     `json:"estimated_monthly_traffic_potential" yaml:"estimated_monthly_traffic_potential"`
	AvgCPC                           float64 `json:"avg_cpc" yaml:"avg_cpc"`
}

// RunSummary describes the run that produced a report.
type RunSummary struct {
	SourceTopic             string `json:"source_topic" yaml:"source_topic"`
	BusinessType            string `json:"business_type" yaml:"business_type"`
	TotalKeywords           int    `json:"total_keywords" yaml:"total_keywords"`
	TotalSearchVolume       int    `json:"total_search_volume" yaml:"total_search_volume"`
	EstimatedMonthlyTraffic int    `json:"estimated_monthly_traffic" yaml:"estimated_monthly_traffic"`
	AverageCPC              string `json:"average_cpc" yaml:"average_cpc"`
	AnalysisDate            string `json:"analysis_date" yaml:"analysis_date"`
}

// Report is the read-only result of one analysis run.
type Report struct {
	Clusters            []*cluster.Cluster `json:"clusters" yaml:"clusters"`
	AnalysisSummary     AnalysisSummary    `json:"analysis_summary" yaml:"analysis_summary"`
	QuickWins           []*cluster.Cluster `json:"quick_wins" yaml:"quick_wins"`
	HighValue           []*cluster.Cluster `json:"high_value" yaml:"high_value"`
	Competitors         []string           `json:"competitors" yaml:"competitors"`
	CompetitorFootprint []DomainCount      `json:"competitor_footprint" yaml:"competitor_footprint"`
	ActionPlan          ActionPlan         `json:"action_plan" yaml:"action_plan"`
	Summary             RunSummary         `json:"summary" yaml:"summary"`
}

// Assembler turns a ranked cluster list into a Report.
type Assembler struct {
	config Config
	now    func() time.Time
	log    *logger.Logger
}

// NewAssembler creates a report assembler.
func NewAssembler(config Config, log *logger.Logger) *Assembler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Assembler{
		config: config,
		now:    time.Now,
		log:    log.WithField("component", "report_assembler"),
	}
}

// Assemble builds the report for topic from clusters, which must already be
// ordered by total commercial score. Empty input yields a zero-valued report.
func (a *Assembler) Assemble(topic, businessType string, clusters []*cluster.Cluster) *Report {
	totalVolume := 0
	totalKeywords := 0
	cpcSum := 0.0
	for _, c := range clusters {
		totalVolume += c.TotalSearchVolume
		totalKeywords += len(c.Keywords)
		cpcSum += c.AvgCPC
	}

	avgCPC := 0.0
	if len(clusters) > 0 {
		avgCPC = cpcSum / float64(len(clusters))
	}
	traffic := int(math.Round(float64(totalVolume) * a.config.TrafficRate))

	report := &Report{
		Clusters: head(clusters, a.config.TopClusters),
		AnalysisSummary: AnalysisSummary{
			TotalMonthlySearchVolume:         totalVolume,
			EstimatedMonthlyTrafficPotential: traffic,
			AvgCPC:                           avgCPC,
		},
		QuickWins:           head(QuickWins(clusters, a.config.Report), a.config.ListLimit),
		HighValue:           head(HighValue(clusters, a.config.Report), a.config.ListLimit),
		Competitors:         Competitors(clusters, a.config.MaxCompetitors),
		CompetitorFootprint: CompetitorFootprint(clusters),
		ActionPlan:          BuildActionPlan(topic, businessType, clusters, a.config.Plan),
		Summary: RunSummary{
			SourceTopic:             topic,
			BusinessType:            businessType,
			TotalKeywords:           totalKeywords,
			TotalSearchVolume:       totalVolume,
			EstimatedMonthlyTraffic: traffic,
			AverageCPC:              fmt.Sprintf("%.2f", avgCPC),
			AnalysisDate:            a.now().UTC().Format(time.RFC3339),
		},
	}

	a.log.WithFields(map[string]interface{}{
		"clusters":     len(clusters),
		"keywords":     totalKeywords,
		"total_volume": totalVolume,
		"quick_wins":   len(report.QuickWins),
		"high_value":   len(report.HighValue),
	}).Info("Report assembled")
	return report
}

// QuickWins returns the clusters that are easy to rank for with enough volume.
func QuickWins(clusters []*cluster.Cluster, t Thresholds) []*cluster.Cluster {
	out := make([]*cluster.Cluster, 0)
	for _, c := range clusters {
		if c.AvgDifficulty <= t.QuickWinMaxDifficulty && c.TotalSearchVolume >= t.QuickWinMinVolume {
			out = append(out, c)
		}
	}
	return out
}

// HighValue returns the clusters with large search volume regardless of difficulty.
func HighValue(clusters []*cluster.Cluster, t Thresholds) []*cluster.Cluster {
	out := make([]*cluster.Cluster, 0)
	for _, c := range clusters {
		if c.TotalSearchVolume >= t.HighValueMinVolume {
			out = append(out, c)
		}
	}
	return out
}

// Competitors returns the distinct non-empty competitor domains of all clusters, at most limit.
func Competitors(clusters []*cluster.Cluster, limit int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, limit)
	for _, c := range clusters {
		for _, d := range c.CompetitorDomains {
			if len(out) == limit {
				return out
			}
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func head(clusters []*cluster.Cluster, n int) []*cluster.Cluster {
	if len(clusters) <= n {
		out := make([]*cluster.Cluster, len(clusters))
		copy(out, clusters)
		return out
	}
	return clusters[:n:n]
}
