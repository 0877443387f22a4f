package backend

import (
	"keyword-research-go/pkg/cluster"
	"keyword-research-go/pkg/keyword"
	"keyword-research-go/pkg/logger"
	"keyword-research-go/pkg/report"
)

// DataConverter converts analysis reports to backend submission format
type DataConverter struct {
	log *logger.Logger
}

// NewDataConverter creates a new data converter
func NewDataConverter() *DataConverter {
	return &DataConverter{
		log: logger.GetLogger().WithField("component", "data_converter"),
	}
}

// ConvertReport flattens the reported clusters into one entry per keyword.
// A keyword appears once even when it is listed in several report sections.
func (dc *DataConverter) ConvertReport(runID string, r *report.Report) *ReportSubmission {
	sub := &ReportSubmission{
		RunID:           runID,
		Summary:         r.Summary,
		AnalysisSummary: r.AnalysisSummary,
		ActionPlan:      r.ActionPlan,
		Competitors:     r.Competitors,
		Keywords:        make([]KeywordMetricsData, 0),
	}

	seen := make(map[string]bool)
	for _, c := range r.Clusters {
		for _, rec := range c.Keywords {
			if rec == nil || seen[rec.Key()] {
				continue
			}
			seen[rec.Key()] = true
			sub.Keywords = append(sub.Keywords, dc.convertKeyword(c, rec))
		}
	}

	dc.log.WithFields(map[string]interface{}{
		"run_id":   runID,
		"keywords": len(sub.Keywords),
	}).Debug("Converted report to backend format")
	return sub
}

func (dc *DataConverter) convertKeyword(c *cluster.Cluster, rec *keyword.Record) KeywordMetricsData {
	data := KeywordMetricsData{
		Keyword:   rec.Keyword,
		ClusterID: c.ID,
		Theme:     string(c.Theme),
		Metrics: MetricsData{
			SearchVolume:     rec.SearchVolume,
			CPC:              rec.CPC,
			Competition:      rec.Competition,
			CompetitionLevel: rec.CompetitionLevel,
			Difficulty:       rec.Difficulty,
			CommercialScore:  rec.CommercialScore,
			IsSeed:           rec.IsSeed,
		},
	}
	if len(rec.SerpURLs) > 0 {
		data.URL = rec.SerpURLs[0].URL
	}
	return data
}
