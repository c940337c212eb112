package aggregator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/searchmesh/searchmesh/internal/search/breaker"
	"github.com/searchmesh/searchmesh/internal/search/provider"
	"github.com/searchmesh/searchmesh/internal/search/types"
)

// DefaultSearchTimeout bounds each individual provider call
const DefaultSearchTimeout = 10 * time.Second

// Enricher augments already-collected results without producing,
// removing or reordering them
type Enricher interface {
	Source() types.SourceID
	IsConfigured() bool
	Enrich(ctx context.Context, results []*types.SearchResult) ([]*types.SearchResult, error)
}

// Deduplicator collapses duplicate results
type Deduplicator interface {
	Deduplicate(results []*types.SearchResult) []*types.SearchResult
}

// Config holds aggregator tuning knobs
type Config struct {
	// SearchTimeout is the per-provider call deadline
	SearchTimeout time.Duration

	// BreakerThreshold and BreakerTimeout are applied when a
	// provider's circuit breaker is first created
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// Aggregator fans a search request out to all selected providers
// concurrently, each call gated by the provider's circuit breaker and
// bounded by a per-call timeout, and merges whatever succeeded. One
// provider failing, timing out or being refused never affects the
// others; a request with every provider failing still yields a
// well-formed, empty result set.
type Aggregator struct {
	providers map[types.SourceID]provider.Provider
	order     []types.SourceID
	breakers  *breaker.Registry
	enricher  Enricher
	cfg       Config
	logger    *zap.Logger
}

// New creates an aggregator over the given providers. The enricher may
// be nil. A nil logger is replaced with a no-op logger.
func New(cfg Config, providers []provider.Provider, enricher Enricher, registry *breaker.Registry, logger *zap.Logger) *Aggregator {
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = breaker.DefaultFailureThreshold
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = breaker.DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Aggregator{
		providers: make(map[types.SourceID]provider.Provider, len(providers)),
		breakers:  registry,
		enricher:  enricher,
		cfg:       cfg,
		logger:    logger,
	}
	for _, p := range providers {
		if _, dup := a.providers[p.Source()]; !dup {
			a.order = append(a.order, p.Source())
		}
		a.providers[p.Source()] = p
	}
	return a
}

// searchTask is one permitted provider call
type searchTask struct {
	source types.SourceID
	prov   provider.Provider
	cb     *breaker.CircuitBreaker
}

// Search executes the request against all selected providers and
// returns a best-effort aggregate. It returns an error only for an
// invalid request; provider failures are reported via SourcesFailed.
func (a *Aggregator) Search(ctx context.Context, req *types.SearchRequest, dedup Deduplicator) (*types.AggregatedResults, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		queried []types.SourceID
		failed  []types.SourceID
		tasks   []searchTask
	)

	for _, source := range req.Sources {
		p, ok := a.providers[source]
		if !ok {
			// Unknown sources are ignored, not errors
			continue
		}
		queried = append(queried, source)

		if !p.IsConfigured() {
			a.logger.Warn("provider not configured, skipping", zap.String("source", string(source)))
			failed = append(failed, source)
			continue
		}

		cb := a.breakers.GetOrCreate(string(source), a.cfg.BreakerThreshold, a.cfg.BreakerTimeout)
		if !cb.TryAcquire() {
			// Refusals do not touch breaker counters
			a.logger.Warn("circuit breaker open, skipping", zap.String("source", string(source)))
			failed = append(failed, source)
			continue
		}

		tasks = append(tasks, searchTask{source: source, prov: p, cb: cb})
	}

	// Fan out. Each task writes only its own slot, so the slice needs
	// no locking; the WaitGroup is the barrier before any merging.
	type outcome struct {
		results []*types.SearchResult
		err     error
	}
	outcomes := make([]outcome, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t searchTask) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, a.cfg.SearchTimeout)
			defer cancel()

			results, err := t.prov.Search(callCtx, req.Query, req.MaxResults, req.ImageSearch)
			outcomes[i] = outcome{results: results, err: err}
		}(i, t)
	}
	wg.Wait()

	var (
		all       []*types.SearchResult
		succeeded []types.SourceID
	)
	for i, t := range tasks {
		o := outcomes[i]
		if o.err != nil {
			t.cb.RecordFailure()
			failed = append(failed, t.source)
			if errors.Is(o.err, context.DeadlineExceeded) {
				a.logger.Warn("provider timed out",
					zap.String("source", string(t.source)),
					zap.Duration("timeout", a.cfg.SearchTimeout))
			} else {
				a.logger.Error("provider search failed",
					zap.String("source", string(t.source)), zap.Error(o.err))
			}
			continue
		}

		t.cb.RecordSuccess()
		for j, r := range o.results {
			r.Source = t.source
			r.Position = j + 1
		}
		all = append(all, o.results...)
		succeeded = append(succeeded, t.source)
		a.logger.Info("provider search succeeded",
			zap.String("source", string(t.source)), zap.Int("results", len(o.results)))
	}

	if req.ImageSearch && a.enricher != nil && a.enricher.IsConfigured() {
		queried, succeeded, failed = a.enrichResults(ctx, all, queried, succeeded, failed)
	}

	duplicatesRemoved := 0
	if dedup != nil {
		before := len(all)
		all = dedup.Deduplicate(all)
		duplicatesRemoved = before - len(all)
	}

	total := len(all)
	if total > req.MaxResults {
		all = all[:req.MaxResults]
	}
	if all == nil {
		all = []*types.SearchResult{}
	}

	return &types.AggregatedResults{
		Query:             req.Query,
		Results:           all,
		TotalResults:      total,
		SourcesQueried:    queried,
		SourcesSucceeded:  succeeded,
		SourcesFailed:     failed,
		DuplicatesRemoved: duplicatesRemoved,
		ProcessingTimeMs:  float64(time.Since(start).Microseconds()) / 1000.0,
		CreatedAt:         time.Now(),
	}, nil
}

// enrichResults runs the enrichment adapter over the merged list under
// its own circuit breaker. The enrichment source joins the queried set
// and lands in exactly one of succeeded/failed, keeping the partition
// invariant. Enrichment failure never discards collected results.
func (a *Aggregator) enrichResults(
	ctx context.Context,
	results []*types.SearchResult,
	queried, succeeded, failed []types.SourceID,
) ([]types.SourceID, []types.SourceID, []types.SourceID) {
	source := a.enricher.Source()
	queried = append(queried, source)

	cb := a.breakers.GetOrCreate(string(source), a.cfg.BreakerThreshold, a.cfg.BreakerTimeout)
	if !cb.TryAcquire() {
		a.logger.Warn("enrichment circuit breaker open, skipping", zap.String("source", string(source)))
		return queried, succeeded, append(failed, source)
	}

	if _, err := a.enricher.Enrich(ctx, results); err != nil {
		cb.RecordFailure()
		a.logger.Error("enrichment failed", zap.String("source", string(source)), zap.Error(err))
		return queried, succeeded, append(failed, source)
	}

	cb.RecordSuccess()
	return queried, append(succeeded, source), failed
}

// Status reports every registered provider's configuration and breaker
// state, in registration order
func (a *Aggregator) Status() []types.SourceStatus {
	statuses := make([]types.SourceStatus, 0, len(a.order))
	for _, source := range a.order {
		p := a.providers[source]
		cb := a.breakers.GetOrCreate(string(source), a.cfg.BreakerThreshold, a.cfg.BreakerTimeout)
		statuses = append(statuses, types.SourceStatus{
			Source:     source,
			Configured: p.IsConfigured(),
			Breaker:    cb.Stats(),
		})
	}
	return statuses
}
