package keyword

import (
	"math"
	"net/url"
	"strings"
)

const (
	maxDifficultyResults = 10
	maxDifficulty        = 100
)

var highAuthorityDomains = []string{"wikipedia.org", "amazon.com", "youtube.com", "facebook.com"}

// Difficulty estimates how hard it is to rank for a keyword from its organic
// results, in [0, 100]. Only the first ten results count; rank 1 weighs 1.0
// and rank 10 weighs 0.1.
func Difficulty(organic []SerpItem) int {
	if len(organic) == 0 {
		return 0
	}

	var total float64
	for i, result := range organic {
		if i == maxDifficultyResults {
			break
		}
		weight := float64(maxDifficultyResults-i) / maxDifficultyResults
		total += domainWeight(ExtractDomain(result.URL)) * weight
	}

	return int(math.Min(maxDifficulty, math.Round(total)))
}

func domainWeight(domain string) float64 {
	switch {
	case containsAny(domain, highAuthorityDomains):
		return 25
	case len(domain) > 20:
		return 15
	default:
		return 8
	}
}

// ExtractDomain returns the host of rawURL without a leading "www.".
// Inputs that do not parse as absolute URLs fall back to the third
// slash-separated segment, then to the input itself.
func ExtractDomain(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Hostname() != "" {
		return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	}

	parts := strings.Split(rawURL, "/")
	if len(parts) > 2 && parts[2] != "" {
		return strings.TrimPrefix(parts[2], "www.")
	}
	return rawURL
}
