package aggregator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/searchmesh/searchmesh/internal/search/breaker"
	"github.com/searchmesh/searchmesh/internal/search/provider"
	"github.com/searchmesh/searchmesh/internal/search/types"
)

// fakeProvider is a scriptable provider for aggregator tests
type fakeProvider struct {
	source     types.SourceID
	configured bool
	results    []*types.SearchResult
	err        error
	blockCtx   bool // block until the call context expires
}

func (f *fakeProvider) Source() types.SourceID { return f.source }
func (f *fakeProvider) Name() string           { return string(f.source) }
func (f *fakeProvider) IsConfigured() bool     { return f.configured }

func (f *fakeProvider) Search(ctx context.Context, query string, maxResults int, imageSearch bool) ([]*types.SearchResult, error) {
	if f.blockCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	// Fresh copies so tests can run the same fake twice
	out := make([]*types.SearchResult, len(f.results))
	for i, r := range f.results {
		c := *r
		out[i] = &c
	}
	return out, nil
}

func fakeResults(prefix string, n int) []*types.SearchResult {
	results := make([]*types.SearchResult, n)
	for i := range results {
		results[i] = &types.SearchResult{
			Title: fmt.Sprintf("%s result %d", prefix, i+1),
			URL:   fmt.Sprintf("https://%s.example.com/%d", prefix, i+1),
		}
	}
	return results
}

func newTestAggregator(fakes []*fakeProvider, enricher Enricher) (*Aggregator, *breaker.Registry) {
	registry := breaker.NewRegistry()
	providers := make([]provider.Provider, len(fakes))
	for i, f := range fakes {
		providers[i] = f
	}
	agg := New(Config{SearchTimeout: 50 * time.Millisecond}, providers, enricher, registry, zap.NewNop())
	return agg, registry
}

func TestSearch_PartialFailure(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 2)}
	b := &fakeProvider{source: "beta", configured: true, blockCtx: true}
	c := &fakeProvider{source: "gamma", configured: false}

	agg, registry := newTestAggregator([]*fakeProvider{a, b, c}, nil)

	req := &types.SearchRequest{
		Query:   "pizza",
		Sources: []types.SourceID{"alpha", "beta", "gamma"},
	}
	out, err := agg.Search(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, []types.SourceID{"alpha", "beta", "gamma"}, out.SourcesQueried)
	assert.Equal(t, []types.SourceID{"alpha"}, out.SourcesSucceeded)
	assert.ElementsMatch(t, []types.SourceID{"beta", "gamma"}, out.SourcesFailed)
	require.Len(t, out.Results, 2)
	for _, r := range out.Results {
		assert.Equal(t, types.SourceID("alpha"), r.Source)
	}

	// Breakers: alpha one success, beta one failure, gamma untouched
	assert.Equal(t, 1, registry.Get("alpha").Stats().SuccessCount)
	assert.Equal(t, 1, registry.Get("beta").Stats().FailureCount)
	assert.Nil(t, registry.Get("gamma"))
}

func TestSearch_PartitionInvariant(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 1)}
	b := &fakeProvider{source: "beta", configured: true, err: errors.New("boom")}

	agg, _ := newTestAggregator([]*fakeProvider{a, b}, nil)

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:   "pizza",
		Sources: []types.SourceID{"alpha", "beta"},
	}, nil)
	require.NoError(t, err)

	combined := append(append([]types.SourceID{}, out.SourcesSucceeded...), out.SourcesFailed...)
	assert.ElementsMatch(t, out.SourcesQueried, combined)
}

func TestSearch_UnknownSourcesIgnored(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 1)}
	agg, _ := newTestAggregator([]*fakeProvider{a}, nil)

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:   "pizza",
		Sources: []types.SourceID{"alpha", "nope"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []types.SourceID{"alpha"}, out.SourcesQueried)
	assert.Len(t, out.Results, 1)
}

func TestSearch_CircuitRefusalDoesNotTouchBreaker(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 1)}
	agg, registry := newTestAggregator([]*fakeProvider{a}, nil)

	cb := registry.GetOrCreate("alpha", breaker.DefaultFailureThreshold, breaker.DefaultTimeout)
	for i := 0; i < breaker.DefaultFailureThreshold; i++ {
		cb.RecordFailure()
	}
	before := cb.Stats()

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:   "pizza",
		Sources: []types.SourceID{"alpha"},
	}, nil)
	require.NoError(t, err)

	assert.Empty(t, out.SourcesSucceeded)
	assert.Equal(t, []types.SourceID{"alpha"}, out.SourcesFailed)
	assert.Empty(t, out.Results)

	after := cb.Stats()
	assert.Equal(t, before.FailureCount, after.FailureCount)
	assert.Equal(t, before.SuccessCount, after.SuccessCount)
}

func TestSearch_StampsPositionAndSource(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 3)}
	agg, _ := newTestAggregator([]*fakeProvider{a}, nil)

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:   "pizza",
		Sources: []types.SourceID{"alpha"},
	}, nil)
	require.NoError(t, err)

	require.Len(t, out.Results, 3)
	for i, r := range out.Results {
		assert.Equal(t, i+1, r.Position)
		assert.Equal(t, types.SourceID("alpha"), r.Source)
	}
}

func TestSearch_TruncatesToMaxResults(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 8)}
	agg, _ := newTestAggregator([]*fakeProvider{a}, nil)

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:      "pizza",
		Sources:    []types.SourceID{"alpha"},
		MaxResults: 5,
	}, nil)
	require.NoError(t, err)

	assert.Len(t, out.Results, 5)
	assert.Equal(t, 8, out.TotalResults)
}

// fakeDedup drops every other result
type fakeDedup struct{}

func (fakeDedup) Deduplicate(results []*types.SearchResult) []*types.SearchResult {
	out := make([]*types.SearchResult, 0, len(results))
	for i, r := range results {
		if i%2 == 0 {
			out = append(out, r)
		}
	}
	return out
}

func TestSearch_DeduplicatorAccounting(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 4)}
	agg, _ := newTestAggregator([]*fakeProvider{a}, nil)

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:   "pizza",
		Sources: []types.SourceID{"alpha"},
	}, fakeDedup{})
	require.NoError(t, err)

	assert.Len(t, out.Results, 2)
	assert.Equal(t, 2, out.DuplicatesRemoved)
	assert.Equal(t, 2, out.TotalResults)
}

func TestSearch_AllProvidersFailing(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, err: errors.New("boom")}
	b := &fakeProvider{source: "beta", configured: false}
	agg, _ := newTestAggregator([]*fakeProvider{a, b}, nil)

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:   "pizza",
		Sources: []types.SourceID{"alpha", "beta"},
	}, nil)
	require.NoError(t, err)

	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
	assert.Empty(t, out.SourcesSucceeded)
	assert.ElementsMatch(t, []types.SourceID{"alpha", "beta"}, out.SourcesFailed)
}

func TestSearch_InvalidRequest(t *testing.T) {
	agg, _ := newTestAggregator(nil, nil)

	_, err := agg.Search(context.Background(), &types.SearchRequest{Query: ""}, nil)
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

// fakeEnricher fills missing snippets, or fails on demand
type fakeEnricher struct {
	configured bool
	err        error
}

func (f *fakeEnricher) Source() types.SourceID { return types.SourceAzureVision }
func (f *fakeEnricher) IsConfigured() bool     { return f.configured }

func (f *fakeEnricher) Enrich(ctx context.Context, results []*types.SearchResult) ([]*types.SearchResult, error) {
	if f.err != nil {
		return results, f.err
	}
	for _, r := range results {
		if r.Snippet == "" {
			r.Snippet = "enriched"
		}
	}
	return results, nil
}

func TestSearch_EnrichmentSuccess(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 2)}
	agg, _ := newTestAggregator([]*fakeProvider{a}, &fakeEnricher{configured: true})

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:       "pizza",
		Sources:     []types.SourceID{"alpha"},
		ImageSearch: true,
	}, nil)
	require.NoError(t, err)

	assert.Contains(t, out.SourcesQueried, types.SourceAzureVision)
	assert.Contains(t, out.SourcesSucceeded, types.SourceAzureVision)
	for _, r := range out.Results {
		assert.Equal(t, "enriched", r.Snippet)
	}
}

func TestSearch_EnrichmentFailureKeepsResults(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 2)}
	agg, _ := newTestAggregator([]*fakeProvider{a}, &fakeEnricher{configured: true, err: errors.New("vision down")})

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:       "pizza",
		Sources:     []types.SourceID{"alpha"},
		ImageSearch: true,
	}, nil)
	require.NoError(t, err)

	assert.Contains(t, out.SourcesFailed, types.SourceAzureVision)
	assert.Len(t, out.Results, 2)
}

func TestSearch_EnricherSkippedForWebSearch(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 1)}
	agg, _ := newTestAggregator([]*fakeProvider{a}, &fakeEnricher{configured: true})

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:   "pizza",
		Sources: []types.SourceID{"alpha"},
	}, nil)
	require.NoError(t, err)

	assert.NotContains(t, out.SourcesQueried, types.SourceAzureVision)
}

func TestSearch_UnconfiguredEnricherIgnored(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true, results: fakeResults("alpha", 1)}
	agg, _ := newTestAggregator([]*fakeProvider{a}, &fakeEnricher{configured: false})

	out, err := agg.Search(context.Background(), &types.SearchRequest{
		Query:       "pizza",
		Sources:     []types.SourceID{"alpha"},
		ImageSearch: true,
	}, nil)
	require.NoError(t, err)

	assert.NotContains(t, out.SourcesQueried, types.SourceAzureVision)
	assert.NotContains(t, out.SourcesFailed, types.SourceAzureVision)
}

func TestStatus(t *testing.T) {
	a := &fakeProvider{source: "alpha", configured: true}
	b := &fakeProvider{source: "beta", configured: false}
	agg, _ := newTestAggregator([]*fakeProvider{a, b}, nil)

	statuses := agg.Status()
	require.Len(t, statuses, 2)
	assert.Equal(t, types.SourceID("alpha"), statuses[0].Source)
	assert.True(t, statuses[0].Configured)
	assert.Equal(t, types.SourceID("beta"), statuses[1].Source)
	assert.False(t, statuses[1].Configured)
	assert.Equal(t, "closed", statuses[0].Breaker.State)
}
