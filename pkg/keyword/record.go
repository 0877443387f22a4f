package keyword

import (
	"strings"

	"golang.org/x/text/cases"
)

// MetricEntry is one keyword row of a metrics or related-keywords batch.
type MetricEntry struct {
	Keyword          string  `json:"keyword"`
	SearchVolume     int     `json:"search_volume"`
	CPC              float64 `json:"cpc"`
	Competition      float64 `json:"competition"`
	CompetitionLevel string  `json:"competition_level"`
}

// SerpItem is one entry of a search results page.
type SerpItem struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// SerpResponse holds the result page returned for a queried keyword.
type SerpResponse struct {
	Keyword string     `json:"keyword"`
	Items   []SerpItem `json:"items"`
}

// ResultDescriptor describes one of the top-ranking pages for a keyword.
type ResultDescriptor struct {
	URL      string `json:"url" yaml:"url"`
	Title    string `json:"title" yaml:"title"`
	Domain   string `json:"domain" yaml:"domain"`
	Position int    `json:"position" yaml:"position"`
}

// Record is the canonical, de-duplicated view of a keyword within one run.
type Record struct {
	Keyword          string             `json:"keyword" yaml:"keyword"`
	SearchVolume     int                `json:"search_volume" yaml:"search_volume"`
	CPC              float64            `json:"cpc" yaml:"cpc"`
	Competition      float64            `json:"competition" yaml:"competition"`
	CompetitionLevel string             `json:"competition_level" yaml:"competition_level"`
	Difficulty       int                `json:"keyword_difficulty" yaml:"keyword_difficulty"`
	SerpURLs         []ResultDescriptor `json:"serp_urls" yaml:"serp_urls"`
	CommercialScore  int                `json:"commercial_score" yaml:"commercial_score"`
	IsSeed           bool               `json:"is_seed" yaml:"is_seed"`
}

// Key returns the identity of the record.
func (r *Record) Key() string {
	return Normalize(r.Keyword)
}

// Domains returns the distinct domains of the record's result descriptors in rank order.
func (r *Record) Domains() []string {
	seen := make(map[string]bool, len(r.SerpURLs))
	domains := make([]string, 0, len(r.SerpURLs))
	for _, d := range r.SerpURLs {
		if d.Domain == "" || seen[d.Domain] {
			continue
		}
		seen[d.Domain] = true
		domains = append(domains, d.Domain)
	}
	return domains
}

// Normalize returns the identity key of a keyword: trimmed and case-folded.
func Normalize(keyword string) string {
	return cases.Fold().String(strings.TrimSpace(keyword))
}
