package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// LengthFilter keeps keywords whose rune length lies in [minLength, maxLength].
type LengthFilter struct {
	minLength int
	maxLength int
	name      string
}

func NewLengthFilter(name string, minLength, maxLength int) *LengthFilter {
	return &LengthFilter{
		name:      name,
		minLength: minLength,
		maxLength: maxLength,
	}
}

func (f *LengthFilter) Apply(keywords []string) []string {
	filtered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		n := utf8.RuneCountInString(kw)
		if n >= f.minLength && n <= f.maxLength {
			filtered = append(filtered, kw)
		}
	}
	return filtered
}

func (f *LengthFilter) Name() string {
	return f.name
}

// SubstringFilter drops keywords containing any of the given fragments.
type SubstringFilter struct {
	fragments []string
	name      string
}

func NewSubstringFilter(name string, fragments []string) *SubstringFilter {
	return &SubstringFilter{
		name:      name,
		fragments: fragments,
	}
}

func (f *SubstringFilter) Apply(keywords []string) []string {
	filtered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if !f.matches(kw) {
			filtered = append(filtered, kw)
		}
	}
	return filtered
}

func (f *SubstringFilter) matches(kw string) bool {
	for _, frag := range f.fragments {
		if strings.Contains(kw, frag) {
			return true
		}
	}
	return false
}

func (f *SubstringFilter) Name() string {
	return f.name
}

// PatternFilter keeps keywords matching a regular expression.
type PatternFilter struct {
	pattern *regexp.Regexp
	name    string
}

func NewPatternFilter(name string, pattern *regexp.Regexp) *PatternFilter {
	return &PatternFilter{
		name:    name,
		pattern: pattern,
	}
}

func (f *PatternFilter) Apply(keywords []string) []string {
	filtered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if f.pattern.MatchString(kw) {
			filtered = append(filtered, kw)
		}
	}
	return filtered
}

func (f *PatternFilter) Name() string {
	return f.name
}

// TrimFilter trims surrounding whitespace and then the given trailing characters.
type TrimFilter struct {
	trailing string
	name     string
}

func NewTrimFilter(name, trailing string) *TrimFilter {
	return &TrimFilter{
		name:     name,
		trailing: trailing,
	}
}

func (f *TrimFilter) Apply(keywords []string) []string {
	trimmed := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		trimmed = append(trimmed, strings.TrimRight(strings.TrimSpace(kw), f.trailing))
	}
	return trimmed
}

func (f *TrimFilter) Name() string {
	return f.name
}

// LimitFilter keeps the first max keywords.
type LimitFilter struct {
	max  int
	name string
}

func NewLimitFilter(name string, max int) *LimitFilter {
	return &LimitFilter{
		name: name,
		max:  max,
	}
}

func (f *LimitFilter) Apply(keywords []string) []string {
	if len(keywords) <= f.max {
		return keywords
	}
	return keywords[:f.max]
}

func (f *LimitFilter) Name() string {
	return f.name
}

// DuplicateFilter removes duplicate keywords
type DuplicateFilter struct {
	name string
}

func NewDuplicateFilter(name string) *DuplicateFilter {
	return &DuplicateFilter{name: name}
}

func (f *DuplicateFilter) Apply(keywords []string) []string {
	seen := make(map[string]bool)
	filtered := make([]string, 0, len(keywords))

	for _, kw := range keywords {
		normalized := strings.ToLower(kw)
		if !seen[normalized] {
			seen[normalized] = true
			filtered = append(filtered, kw)
		}
	}

	return filtered
}

func (f *DuplicateFilter) Name() string {
	return f.name
}
