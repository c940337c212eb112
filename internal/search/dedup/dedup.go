package dedup

import (
	"go.uber.org/zap"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

// defaultSourceWeights bias representative selection toward sources
// with richer metadata
var defaultSourceWeights = map[types.SourceID]float64{
	types.SourceGoogle:     1.2,
	types.SourceBing:       1.0,
	types.SourceDuckDuckGo: 0.9,
}

// Deduplicator collapses near-duplicate results in two passes: exact
// matching on normalized URLs, then greedy fuzzy title matching.
// Discarded results are marked IsDuplicate (and DuplicateOf for URL
// duplicates) so callers holding the pre-filter list can audit them.
type Deduplicator struct {
	normalizer  *URLNormalizer
	matcher     *FuzzyMatcher
	enableFuzzy bool
	weights     map[types.SourceID]float64
	logger      *zap.Logger
}

// NewDeduplicator creates a deduplicator. A nil logger is replaced
// with a no-op logger.
func NewDeduplicator(normalizer *URLNormalizer, matcher *FuzzyMatcher, enableFuzzy bool, logger *zap.Logger) *Deduplicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduplicator{
		normalizer:  normalizer,
		matcher:     matcher,
		enableFuzzy: enableFuzzy,
		weights:     defaultSourceWeights,
		logger:      logger,
	}
}

// Deduplicate removes duplicates from results, keeping the best
// representative of each group. Output order follows the first
// appearance of each distinct normalized URL in the input.
func (d *Deduplicator) Deduplicate(results []*types.SearchResult) []*types.SearchResult {
	if len(results) == 0 {
		return []*types.SearchResult{}
	}

	for _, r := range results {
		r.NormalizedURL = d.normalizer.Normalize(r.URL)
	}

	keys, groups := d.groupByURL(results)
	unique := d.mergeGroups(keys, groups)

	if d.enableFuzzy {
		unique = d.fuzzyPass(unique)
	}

	d.logger.Debug("deduplication finished",
		zap.Int("input", len(results)),
		zap.Int("output", len(unique)),
		zap.Int("removed", len(results)-len(unique)),
	)
	return unique
}

// groupByURL partitions results by normalized URL, falling back to the
// raw URL when normalization produced an empty string. Key order
// preserves first appearance.
func (d *Deduplicator) groupByURL(results []*types.SearchResult) ([]string, map[string][]*types.SearchResult) {
	keys := make([]string, 0, len(results))
	groups := make(map[string][]*types.SearchResult, len(results))

	for _, r := range results {
		key := r.NormalizedURL
		if key == "" {
			key = r.URL
		}
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], r)
	}
	return keys, groups
}

func (d *Deduplicator) mergeGroups(keys []string, groups map[string][]*types.SearchResult) []*types.SearchResult {
	merged := make([]*types.SearchResult, 0, len(keys))

	for _, key := range keys {
		group := groups[key]
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}

		best := d.selectBest(group)
		for _, r := range group {
			if r != best {
				r.IsDuplicate = true
				r.DuplicateOf = best.URL
			}
		}
		merged = append(merged, best)
	}
	return merged
}

// selectBest picks the group representative by maximum score; the
// earliest member wins ties.
func (d *Deduplicator) selectBest(group []*types.SearchResult) *types.SearchResult {
	best := group[0]
	bestScore := d.score(best)

	for _, r := range group[1:] {
		if s := d.score(r); s > bestScore {
			best = r
			bestScore = s
		}
	}
	return best
}

func (d *Deduplicator) score(r *types.SearchResult) float64 {
	s := 1.0
	if w, ok := d.weights[r.Source]; ok {
		s = w
	}
	if r.ThumbnailURL != "" {
		s += 0.2
	}
	if len(r.Snippet) > 100 {
		s += 0.3
	}
	if r.Position > 0 {
		if bonus := (20.0 - float64(r.Position)) / 20.0; bonus > 0 {
			s += bonus
		}
	}
	return s
}

// fuzzyPass greedily drops results whose title matches any previously
// accepted title. First seen wins; a dropped candidate is never
// compared against titles that come after it.
func (d *Deduplicator) fuzzyPass(results []*types.SearchResult) []*types.SearchResult {
	if len(results) < 2 {
		return results
	}

	unique := make([]*types.SearchResult, 0, len(results))
	seenTitles := make([]string, 0, len(results))

	for _, r := range results {
		duplicate := false
		for _, title := range seenTitles {
			if d.matcher.AreSimilar(r.Title, title) {
				duplicate = true
				r.IsDuplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, r)
			seenTitles = append(seenTitles, r.Title)
		}
	}
	return unique
}
