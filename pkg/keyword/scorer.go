package keyword

import (
	"math"
	"strings"
)

type intentRule struct {
	signals    []string
	multiplier float64
}

// Evaluated in order, first match wins.
var intentRules = []intentRule{
	{signals: []string{"buy", "purchase", "order"}, multiplier: 2.5},
	{signals: []string{"best", "top", "review"}, multiplier: 2.0},
	{signals: []string{"price", "cost", "cheap"}, multiplier: 1.8},
}

// IntentMultiplier returns the commercial-intent weight of a keyword.
func IntentMultiplier(keyword string) float64 {
	kw := strings.ToLower(keyword)
	for _, rule := range intentRules {
		if containsAny(kw, rule.signals) {
			return rule.multiplier
		}
	}
	return 1.0
}

// Score computes the commercial score of a keyword:
// round(volume × cpc × intent × (1 + competition)).
func Score(keyword string, volume int, cpc, competition float64) int {
	score := math.Round(float64(volume) * cpc * IntentMultiplier(keyword) * (1 + competition))
	if score < 0 || math.IsNaN(score) {
		return 0
	}
	return int(score)
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
