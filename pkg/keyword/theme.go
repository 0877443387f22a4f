package keyword

import "strings"

// Theme is the human-readable search intent of a keyword.
type Theme string

const (
	ThemePurchaseIntent     Theme = "Purchase Intent"
	ThemeResearchComparison Theme = "Research & Comparison"
	ThemeEducational        Theme = "Educational"
	ThemePriceResearch      Theme = "Price Research"
	ThemeGeneral            Theme = "General"
)

type themeRule struct {
	signals []string
	theme   Theme
}

var themeRules = []themeRule{
	{signals: []string{"buy", "purchase"}, theme: ThemePurchaseIntent},
	{signals: []string{"best", "top", "review"}, theme: ThemeResearchComparison},
	{signals: []string{"how to", "guide"}, theme: ThemeEducational},
	{signals: []string{"price", "cost"}, theme: ThemePriceResearch},
}

// Classify assigns a theme to a keyword, first matching rule wins.
func Classify(keyword string) Theme {
	kw := strings.ToLower(keyword)
	for _, rule := range themeRules {
		if containsAny(kw, rule.signals) {
			return rule.theme
		}
	}
	return ThemeGeneral
}
