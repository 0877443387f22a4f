package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"keyword-research-go/pkg/extractor"
)

// ErrNoKeywords is returned when model output contains no usable keyword.
var ErrNoKeywords = errors.New("no keywords could be extracted from the generated content")

var (
	jsonFence   = regexp.MustCompile("```json\\s*")
	plainFence  = regexp.MustCompile("```\\s*")
	listMarker  = regexp.MustCompile("^[\\d\\-\\*\\.\\s\\[\\]\"'`]+")
	quoteMarker = regexp.MustCompile("[\"'\\]\\[`]")
)

// KeywordParser extracts seed keywords from the free-form output of a language model
type KeywordParser struct {
	lines extractor.Chain
	seeds extractor.Chain
}

// NewKeywordParser creates a parser keeping at most limit keywords
func NewKeywordParser(limit int) *KeywordParser {
	return &KeywordParser{
		lines: extractor.NewLineChain(),
		seeds: extractor.NewSeedChain(limit),
	}
}

// Parse reads content as a JSON array, optionally fenced, and falls back to
// one keyword per line. The result is cleaned and never empty on success.
func (p *KeywordParser) Parse(content string) ([]string, error) {
	content = strings.TrimSpace(content)

	candidates, ok := p.parseJSON(content)
	if !ok {
		candidates = p.parseLines(content)
	}

	keywords := p.seeds.Apply(candidates)
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	return keywords, nil
}

func (p *KeywordParser) parseJSON(content string) ([]string, bool) {
	cleaned := plainFence.ReplaceAllString(jsonFence.ReplaceAllString(content, ""), "")
	cleaned = strings.TrimSpace(cleaned)

	var values []interface{}
	if err := json.Unmarshal([]byte(cleaned), &values); err != nil {
		return nil, false
	}

	keywords := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		keywords = append(keywords, fmt.Sprint(v))
	}
	return keywords, true
}

func (p *KeywordParser) parseLines(content string) []string {
	lines := strings.Split(content, "\n")
	keywords := make([]string, 0, len(lines))
	for _, line := range lines {
		line = listMarker.ReplaceAllString(line, "")
		line = quoteMarker.ReplaceAllString(line, "")
		keywords = append(keywords, strings.TrimSpace(line))
	}
	return p.lines.Apply(keywords)
}
