package keyword

import (
	"strings"

	"keyword-research-go/pkg/logger"
)

const organicType = "organic"

// RepositoryConfig holds the admission limits of the repository.
type RepositoryConfig struct {
	RelatedMinVolume int // related entries need strictly more volume than this
	RelatedLimit     int // related entries kept after filtering
	SerpTopResults   int // result descriptors kept per keyword
}

// DefaultRepositoryConfig returns the limits used by the analysis pipeline.
func DefaultRepositoryConfig() RepositoryConfig {
	return RepositoryConfig{
		RelatedMinVolume: 100,
		RelatedLimit:     200,
		SerpTopResults:   5,
	}
}

// Repository merges keyword records from the metrics, related-keywords and
// SERP batches of one run. It owns every Record it hands out; callers hold
// references but never copies. Not safe for concurrent use.
type Repository struct {
	config  RepositoryConfig
	records map[string]*Record
	order   []string
	log     *logger.Logger
}

// NewRepository creates an empty repository.
func NewRepository(config RepositoryConfig, log *logger.Logger) *Repository {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Repository{
		config:  config,
		records: make(map[string]*Record),
		log:     log.WithField("component", "keyword_repository"),
	}
}

// AddPrimary inserts seed keywords, replacing any existing record with the same key.
// Entries without a keyword or with no search volume are skipped.
// It returns the number of records written.
func (r *Repository) AddPrimary(entries []MetricEntry) int {
	written, skipped := 0, 0
	for _, entry := range entries {
		if !isWellFormed(entry) || entry.SearchVolume <= 0 {
			skipped++
			continue
		}
		r.put(newRecord(entry, true))
		written++
	}

	r.log.WithFields(map[string]interface{}{
		"received": len(entries),
		"written":  written,
		"skipped":  skipped,
		"total":    len(r.order),
	}).Debug("Primary keywords merged")
	return written
}

// AddRelated inserts expansion keywords that clear the volume floor, up to the
// configured limit, without ever replacing an existing record.
// It returns the number of records inserted.
func (r *Repository) AddRelated(entries []MetricEntry) int {
	admitted := 0
	inserted := 0
	for _, entry := range entries {
		if admitted == r.config.RelatedLimit {
			break
		}
		if !isWellFormed(entry) || entry.SearchVolume <= r.config.RelatedMinVolume {
			continue
		}
		admitted++

		if _, exists := r.records[Normalize(entry.Keyword)]; exists {
			continue
		}
		r.put(newRecord(entry, false))
		inserted++
	}

	r.log.WithFields(map[string]interface{}{
		"received": len(entries),
		"admitted": admitted,
		"inserted": inserted,
		"total":    len(r.order),
	}).Debug("Related keywords merged")
	return inserted
}

// ApplySERP attaches organic results to known keywords and recomputes their
// difficulty. Responses for unknown keywords are discarded.
// It returns the number of records updated.
func (r *Repository) ApplySERP(responses []SerpResponse) int {
	updated := 0
	for _, resp := range responses {
		record, ok := r.records[Normalize(resp.Keyword)]
		if !ok || strings.TrimSpace(resp.Keyword) == "" {
			continue
		}

		organic := OrganicOnly(resp.Items)
		top := organic
		if len(top) > r.config.SerpTopResults {
			top = top[:r.config.SerpTopResults]
		}

		descriptors := make([]ResultDescriptor, 0, len(top))
		for _, item := range top {
			descriptors = append(descriptors, ResultDescriptor{
				URL:      item.URL,
				Title:    item.Title,
				Domain:   ExtractDomain(item.URL),
				Position: item.Position,
			})
		}

		record.SerpURLs = descriptors
		record.Difficulty = Difficulty(organic)
		updated++
	}

	r.log.WithFields(map[string]interface{}{
		"received": len(responses),
		"updated":  updated,
	}).Debug("SERP data applied")
	return updated
}

// Get returns the record for keyword, matching case-insensitively.
func (r *Repository) Get(keyword string) (*Record, bool) {
	record, ok := r.records[Normalize(keyword)]
	return record, ok
}

// Len returns the number of distinct keywords.
func (r *Repository) Len() int {
	return len(r.order)
}

// Records returns every record in first-insertion order.
func (r *Repository) Records() []*Record {
	out := make([]*Record, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.records[key])
	}
	return out
}

// WithVolumeAbove returns the records whose search volume exceeds minVolume,
// in first-insertion order.
func (r *Repository) WithVolumeAbove(minVolume int) []*Record {
	out := make([]*Record, 0, len(r.order))
	for _, key := range r.order {
		if record := r.records[key]; record.SearchVolume > minVolume {
			out = append(out, record)
		}
	}
	return out
}

// put stores record, keeping the original position when the key already exists.
func (r *Repository) put(record *Record) {
	key := record.Key()
	if _, exists := r.records[key]; !exists {
		r.order = append(r.order, key)
	}
	r.records[key] = record
}

// OrganicOnly keeps the organic entries of a result page in their original order.
func OrganicOnly(items []SerpItem) []SerpItem {
	organic := make([]SerpItem, 0, len(items))
	for _, item := range items {
		if item.Type == organicType {
			organic = append(organic, item)
		}
	}
	return organic
}

func isWellFormed(entry MetricEntry) bool {
	return strings.TrimSpace(entry.Keyword) != ""
}

func newRecord(entry MetricEntry, seed bool) *Record {
	cpc := entry.CPC
	if cpc < 0 {
		cpc = 0
	}
	level := entry.CompetitionLevel
	if level == "" {
		level = "unknown"
	}
	text := strings.TrimSpace(entry.Keyword)

	return &Record{
		Keyword:          text,
		SearchVolume:     entry.SearchVolume,
		CPC:              cpc,
		Competition:      entry.Competition,
		CompetitionLevel: level,
		SerpURLs:         []ResultDescriptor{},
		CommercialScore:  Score(text, entry.SearchVolume, cpc, entry.Competition),
		IsSeed:           seed,
	}
}
