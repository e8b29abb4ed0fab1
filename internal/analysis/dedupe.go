package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/brandpulse/brandpulse/internal/models"
)

const (
	minSnippetLength = 20
	dedupeKeyLength  = 100
)

// Dedupe collapses near-duplicate snippets from a raw multi-source batch.
// Snippets at or under 20 characters are dropped as noise. The surviving
// snippets are keyed by a normalized prefix of their text and the first
// snippet seen per key wins, so a fixed input order always produces the same
// output. Equality on the truncated key is the whole matching strategy;
// fuzzy similarity is deliberately out of scope.
func Dedupe(snippets []models.Snippet) []models.Snippet {
	seen := make(map[string]bool, len(snippets))
	var unique []models.Snippet

	for _, snippet := range snippets {
		if utf8.RuneCountInString(snippet.Text) <= minSnippetLength {
			continue
		}

		key := normalizationKey(snippet.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, snippet)
	}

	return unique
}

// normalizationKey lower-cases the text, truncates to the first 100
// characters, and collapses runs of whitespace into single spaces.
func normalizationKey(text string) string {
	lowered := strings.ToLower(text)

	runes := []rune(lowered)
	if len(runes) > dedupeKeyLength {
		runes = runes[:dedupeKeyLength]
	}

	return strings.Join(strings.Fields(string(runes)), " ")
}
