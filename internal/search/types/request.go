package types

const (
	// MaxQueryLength bounds the query string
	MaxQueryLength = 500

	// MaxResultsLimit bounds max_results
	MaxResultsLimit = 100

	// DefaultMaxResults is used when a request leaves max_results unset
	DefaultMaxResults = 30
)

// SearchRequest represents a federated search request. Sources not
// registered with the aggregator are ignored, not rejected.
type SearchRequest struct {
	Query       string     `json:"query"`
	Sources     []SourceID `json:"sources,omitempty"`
	MaxResults  int        `json:"max_results,omitempty"`
	ImageSearch bool       `json:"image_search,omitempty"`
}

// Validate checks request bounds and applies defaults in place
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if r.MaxResults == 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.MaxResults < 1 || r.MaxResults > MaxResultsLimit {
		return ErrInvalidMaxResults
	}
	if len(r.Sources) == 0 {
		r.Sources = append([]SourceID(nil), DefaultSources...)
	}
	return nil
}
