package cluster

import (
	"sort"
	"strings"
	"unicode/utf8"

	"keyword-research-go/pkg/keyword"
	"keyword-research-go/pkg/logger"
)

// Cluster groups keywords sharing significant words with its main keyword.
type Cluster struct {
	ID          int               `json:"cluster_id" yaml:"cluster_id"`
	MainKeyword string            `json:"main_keyword" yaml:"main_keyword"`
	Theme       keyword.Theme     `json:"theme" yaml:"theme"`
	Keywords    []*keyword.Record `json:"keywords" yaml:"keywords"`

	TotalSearchVolume int `json:"total_search_volume" yaml:"total_search_volume"`
	// AvgCPC and AvgDifficulty are pairwise running averages: each absorbed
	// member sets avg = (avg + member) / 2.
	AvgCPC               float64  `json:"avg_cpc" yaml:"avg_cpc"`
	AvgDifficulty        float64  `json:"avg_difficulty" yaml:"avg_difficulty"`
	TotalCommercialScore int      `json:"total_commercial_score" yaml:"total_commercial_score"`
	CompetitorDomains    []string `json:"competitor_domains" yaml:"competitor_domains"`
}

// Config bounds the greedy clustering.
type Config struct {
	MaxMembers   int     // members per cluster, main keyword included
	MaxClusters  int     // clusters kept after ranking
	OverlapRatio float64 // shared words needed, as a fraction of the shorter keyword's word count
	MinWordLen   int     // only words longer than this count as shared
}

// DefaultConfig returns the clustering bounds of a standard analysis.
func DefaultConfig() Config {
	return Config{
		MaxMembers:   10,
		MaxClusters:  10,
		OverlapRatio: 0.5,
		MinWordLen:   3,
	}
}

// Builder partitions keyword records into clusters.
type Builder struct {
	config Config
	log    *logger.Logger
}

// NewBuilder creates a cluster builder.
func NewBuilder(config Config, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Builder{
		config: config,
		log:    log.WithField("component", "cluster_builder"),
	}
}

type candidate struct {
	record   *keyword.Record
	words    []string
	assigned bool
}

// Build groups records greedily by descending commercial score and returns at most
// MaxClusters clusters ordered by total commercial score. Callers filter the input
// by volume beforehand; records are referenced, not copied. Blank keywords are skipped.
func (b *Builder) Build(records []*keyword.Record) []*Cluster {
	candidates := make([]*candidate, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		// a keyword without words would relate to every other keyword
		words := strings.Fields(strings.ToLower(r.Keyword))
		if len(words) == 0 {
			continue
		}
		candidates = append(candidates, &candidate{record: r, words: words})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].record.CommercialScore > candidates[j].record.CommercialScore
	})

	clusters := make([]*Cluster, 0)
	for _, seed := range candidates {
		if seed.assigned {
			continue
		}
		seed.assigned = true

		c := newCluster(len(clusters)+1, seed.record)
		for _, other := range candidates {
			if other.assigned || len(c.Keywords) >= b.config.MaxMembers {
				continue
			}
			if b.related(seed.words, other.words) {
				other.assigned = true
				c.absorb(other.record)
			}
		}
		c.CompetitorDomains = unionDomains(c.Keywords)
		clusters = append(clusters, c)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].TotalCommercialScore > clusters[j].TotalCommercialScore
	})

	built := len(clusters)
	if len(clusters) > b.config.MaxClusters {
		clusters = clusters[:b.config.MaxClusters]
	}

	b.log.WithFields(map[string]interface{}{
		"records":  len(candidates),
		"built":    built,
		"returned": len(clusters),
	}).Debug("Keyword clusters built")
	return clusters
}

// related reports whether the candidate shares enough long words with the seed.
func (b *Builder) related(seedWords, otherWords []string) bool {
	shared := SharedWords(seedWords, otherWords, b.config.MinWordLen)
	shorter := len(seedWords)
	if len(otherWords) < shorter {
		shorter = len(otherWords)
	}
	return float64(shared) >= float64(shorter)*b.config.OverlapRatio
}

// SharedWords counts the distinct words of a longer than minLen runes that also occur in b.
func SharedWords(a, b []string, minLen int) int {
	present := make(map[string]bool, len(b))
	for _, w := range b {
		present[w] = true
	}

	counted := make(map[string]bool, len(a))
	shared := 0
	for _, w := range a {
		if counted[w] || utf8.RuneCountInString(w) <= minLen || !present[w] {
			continue
		}
		counted[w] = true
		shared++
	}
	return shared
}

func newCluster(id int, main *keyword.Record) *Cluster {
	return &Cluster{
		ID:                   id,
		MainKeyword:          main.Keyword,
		Theme:                keyword.Classify(main.Keyword),
		Keywords:             []*keyword.Record{main},
		TotalSearchVolume:    main.SearchVolume,
		AvgCPC:               main.CPC,
		AvgDifficulty:        float64(main.Difficulty),
		TotalCommercialScore: main.CommercialScore,
	}
}

func (c *Cluster) absorb(r *keyword.Record) {
	c.Keywords = append(c.Keywords, r)
	c.TotalSearchVolume += r.SearchVolume
	c.AvgCPC = (c.AvgCPC + r.CPC) / 2
	c.AvgDifficulty = (c.AvgDifficulty + float64(r.Difficulty)) / 2
	c.TotalCommercialScore += r.CommercialScore
}

func unionDomains(records []*keyword.Record) []string {
	seen := make(map[string]bool)
	domains := make([]string, 0)
	for _, r := range records {
		for _, d := range r.Domains() {
			if seen[d] {
				continue
			}
			seen[d] = true
			domains = append(domains, d)
		}
	}
	return domains
}
