package types

import "time"

// SearchResult is a single result from any source. Position and Source
// are stamped by the aggregator after a successful provider call;
// NormalizedURL, IsDuplicate and DuplicateOf are written only by the
// deduplicator. Enrichment may fill Snippet, Width and Height when absent.
type SearchResult struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Snippet  string   `json:"snippet"`
	Source   SourceID `json:"source"`
	Position int      `json:"position"`

	// Optional metadata
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	Domain       string `json:"domain,omitempty"`

	// Scoring
	RelevanceScore float64 `json:"relevance_score"`
	SourceWeight   float64 `json:"source_weight"`
	FinalScore     float64 `json:"final_score"`

	// Deduplication
	NormalizedURL string `json:"normalized_url,omitempty"`
	IsDuplicate   bool   `json:"is_duplicate"`
	DuplicateOf   string `json:"duplicate_of,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}

// AggregatedResults combines results from all queried sources.
// SourcesSucceeded and SourcesFailed partition SourcesQueried: every
// queried source lands in exactly one of the two.
type AggregatedResults struct {
	Query   string          `json:"query"`
	Results []*SearchResult `json:"results"`

	// TotalResults counts results before truncation to MaxResults
	TotalResults     int        `json:"total_results"`
	SourcesQueried   []SourceID `json:"sources_queried"`
	SourcesSucceeded []SourceID `json:"sources_succeeded"`
	SourcesFailed    []SourceID `json:"sources_failed"`

	DuplicatesRemoved int     `json:"duplicates_removed"`
	ProcessingTimeMs  float64 `json:"processing_time_ms"`

	CreatedAt time.Time `json:"created_at"`
}

// SourceStatus describes one engine's availability
type SourceStatus struct {
	Source     SourceID     `json:"source"`
	Configured bool         `json:"configured"`
	Breaker    BreakerStats `json:"circuit_breaker"`
}

// BreakerStats is a read-only circuit breaker snapshot
type BreakerStats struct {
	Name         string     `json:"name"`
	State        string     `json:"state"`
	FailureCount int        `json:"failure_count"`
	SuccessCount int        `json:"success_count"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
