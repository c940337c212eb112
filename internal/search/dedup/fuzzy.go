package dedup

import (
	"regexp"
	"strings"
)

// DefaultSimilarityThreshold is the minimum Jaccard score that marks
// two titles as duplicates
const DefaultSimilarityThreshold = 0.7

// stopWords are dropped during tokenization: articles, prepositions,
// filler and marketing words, and recent calendar years
var stopWords = map[string]struct{}{
	// Articles and prepositions
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "for": {}, "nor": {}, "so": {}, "yet": {},
	"at": {}, "by": {}, "in": {}, "of": {}, "on": {}, "to": {}, "up": {}, "as": {}, "is": {}, "it": {},
	// Common filler words
	"best": {}, "top": {}, "new": {}, "free": {}, "how": {}, "what": {}, "why": {}, "when": {}, "where": {},
	"your": {}, "our": {}, "with": {}, "from": {}, "this": {}, "that": {}, "these": {}, "those": {},
	// Years common in titles
	"2024": {}, "2025": {}, "2026": {},
	// Marketing words
	"official": {}, "ultimate": {}, "complete": {}, "guide": {}, "review": {}, "reviews": {},
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)

// FuzzyMatcher detects duplicate content published under different
// titles by comparing stop-word-filtered token sets with Jaccard
// similarity.
type FuzzyMatcher struct {
	threshold float64
}

// NewFuzzyMatcher creates a matcher. A non-positive threshold falls
// back to DefaultSimilarityThreshold.
func NewFuzzyMatcher(threshold float64) *FuzzyMatcher {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &FuzzyMatcher{threshold: threshold}
}

// Tokenize lowercases the text, replaces everything outside [a-z0-9\s]
// with spaces, splits on whitespace, and drops stop words and tokens
// of length <= 2. Duplicate words collapse since the result is a set.
func (m *FuzzyMatcher) Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	if text == "" {
		return tokens
	}

	cleaned := nonAlphanumeric.ReplaceAllString(strings.ToLower(text), " ")
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		tokens[word] = struct{}{}
	}
	return tokens
}

// Jaccard computes |intersection| / |union| of two token sets,
// returning 0.0 when either set is empty.
func (m *FuzzyMatcher) Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Compare returns the similarity score of two titles and whether the
// score meets the duplicate threshold
func (m *FuzzyMatcher) Compare(title1, title2 string) (float64, bool) {
	score := m.Jaccard(m.Tokenize(title1), m.Tokenize(title2))
	return score, score >= m.threshold
}

// AreSimilar reports whether two titles are duplicates
func (m *FuzzyMatcher) AreSimilar(title1, title2 string) bool {
	_, duplicate := m.Compare(title1, title2)
	return duplicate
}
