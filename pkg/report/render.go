package report

import (
	"io"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"keyword-research-go/pkg/cluster"
)

const (
	renderKeywordsPerCluster    = 5
	renderCompetitorsPerCluster = 3
)

// RenderText writes a human-readable rendition of r to w.
func RenderText(w io.Writer, r *Report) error {
	p := message.NewPrinter(language.English)
	tw := &textWriter{w: w, p: p}

	tw.printf("Keyword research: %s (%s)\n", r.Summary.SourceTopic, r.Summary.BusinessType)
	tw.printf("Generated %s\n\n", r.Summary.AnalysisDate)

	tw.printf("Total search volume:  %d\n", r.AnalysisSummary.TotalMonthlySearchVolume)
	tw.printf("Traffic potential:    %d\n", r.AnalysisSummary.EstimatedMonthlyTrafficPotential)
	tw.printf("Average CPC:          $%.2f\n", r.AnalysisSummary.AvgCPC)
	tw.printf("Keyword clusters:     %d\n", len(r.Clusters))

	tw.section("Quick wins")
	if len(r.QuickWins) == 0 {
		tw.printf("  No quick wins found.\n")
	}
	for _, c := range r.QuickWins {
		tw.printf("  %s: %d searches/month, $%.2f CPC, %d/100 difficulty\n",
			c.MainKeyword, c.TotalSearchVolume, c.AvgCPC, int(math.Round(c.AvgDifficulty)))
	}

	tw.section("High-value targets")
	if len(r.HighValue) == 0 {
		tw.printf("  No high-value targets found.\n")
	}
	for _, c := range r.HighValue {
		tw.printf("  %s: %d searches/month, $%.2f CPC, %d commercial score\n",
			c.MainKeyword, c.TotalSearchVolume, c.AvgCPC, c.TotalCommercialScore)
	}

	tw.section("Top clusters")
	for _, c := range r.Clusters {
		tw.cluster(c)
	}

	tw.section("Competitors")
	if len(r.Competitors) == 0 {
		tw.printf("  No competitors found.\n")
	} else {
		tw.printf("  %s\n", strings.Join(r.Competitors, ", "))
	}

	tw.section("Action plan")
	tw.list("Immediate (0-30 days)", r.ActionPlan.Immediate)
	tw.list("Short term (1-3 months)", r.ActionPlan.ShortTerm)
	tw.list("Long term (3-12 months)", r.ActionPlan.LongTerm)

	return tw.err
}

// textWriter stops writing after the first error.
type textWriter struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (tw *textWriter) printf(format string, args ...interface{}) {
	if tw.err != nil {
		return
	}
	_, tw.err = tw.p.Fprintf(tw.w, format, args...)
}

func (tw *textWriter) section(title string) {
	tw.printf("\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func (tw *textWriter) cluster(c *cluster.Cluster) {
	tw.printf("  #%d %s [%s]\n", c.ID, c.MainKeyword, c.Theme)
	tw.printf("     %d searches, $%.2f CPC, %d difficulty, %d keywords\n",
		c.TotalSearchVolume, c.AvgCPC, int(math.Round(c.AvgDifficulty)), len(c.Keywords))

	for i, k := range c.Keywords {
		if i == renderKeywordsPerCluster {
			break
		}
		tw.printf("     - %s (%d)\n", k.Keyword, k.SearchVolume)
	}

	competitors := c.CompetitorDomains
	if len(competitors) > renderCompetitorsPerCluster {
		competitors = competitors[:renderCompetitorsPerCluster]
	}
	if len(competitors) > 0 {
		tw.printf("     competitors: %s\n", strings.Join(competitors, ", "))
	}
}

func (tw *textWriter) list(title string, items []string) {
	tw.printf("  %s\n", title)
	for _, item := range items {
		tw.printf("    * %s\n", item)
	}
}
