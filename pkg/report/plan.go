package report

import (
	"fmt"
	"strings"

	"keyword-research-go/pkg/cluster"
)

const (
	hubClusterLimit    = 3
	highValueTargets   = 2
	noHighValueTargets = "none identified yet"
)

// ActionPlan is a three-tier list of recommended actions.
type ActionPlan struct {
	Immediate []string `json:"immediate" yaml:"immediate"`
	ShortTerm []string `json:"short_term" yaml:"short_term"`
	LongTerm  []string `json:"long_term" yaml:"long_term"`
}

// BuildActionPlan fills the fixed plan template from the ranked clusters.
// The thresholds are separate from the ones used for the report lists.
func BuildActionPlan(topic, businessType string, clusters []*cluster.Cluster, t Thresholds) ActionPlan {
	quickWins := QuickWins(clusters, t)
	highValue := HighValue(clusters, t)

	target := topic
	switch {
	case len(quickWins) > 0:
		target = quickWins[0].MainKeyword
	case len(clusters) > 0:
		target = clusters[0].MainKeyword
	}

	hubs := len(clusters)
	if hubs > hubClusterLimit {
		hubs = hubClusterLimit
	}

	targets := make([]string, 0, highValueTargets)
	for _, c := range head(highValue, highValueTargets) {
		targets = append(targets, c.MainKeyword)
	}
	highValueList := strings.Join(targets, ", ")
	if highValueList == "" {
		highValueList = noHighValueTargets
	}

	return ActionPlan{
		Immediate: []string{
			fmt.Sprintf("Target \"%s\" for quick ranking wins", target),
			fmt.Sprintf("Create comprehensive content around \"%s\" keyword cluster", topic),
			"Analyze competitor strategies for top 3 competitors",
			"Optimize existing pages for long-tail variations",
		},
		ShortTerm: []string{
			fmt.Sprintf("Build content hubs for %d main keyword clusters", hubs),
			"Develop internal linking strategy between related keywords",
			"Start local SEO optimization if targeting local markets",
			"Create FAQ content targeting question-based keywords",
		},
		LongTerm: []string{
			"Target high-value keywords: " + highValueList,
			"Build domain authority through strategic link building",
			fmt.Sprintf("Expand into related %s service areas", businessType),
			"Monitor and adapt strategy based on ranking improvements",
		},
	}
}
