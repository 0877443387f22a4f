package extractor

import "regexp"

const (
	trailingPunctuation = ",'\"`;"
	maxKeywordLength    = 99
	maxLineKeywords     = 30
)

var (
	allowedKeyword  = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)
	markupFragments = []string{"```", "json"}
)

// NewLineChain filters keywords recovered line by line from free-form model output.
func NewLineChain() Chain {
	return Chain{
		NewLengthFilter("line_length", 4, maxKeywordLength),
		NewSubstringFilter("line_markup", markupFragments),
		NewLimitFilter("line_limit", maxLineKeywords),
	}
}

// NewSeedChain cleans generated seed keywords and keeps at most limit of them.
func NewSeedChain(limit int) Chain {
	return Chain{
		NewTrimFilter("trim", trailingPunctuation),
		NewLengthFilter("length", 3, maxKeywordLength),
		NewSubstringFilter("markup", markupFragments),
		NewPatternFilter("charset", allowedKeyword),
		NewDuplicateFilter("duplicates"),
		NewLimitFilter("limit", limit),
	}
}
