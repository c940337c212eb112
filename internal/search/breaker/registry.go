package breaker

import (
	"sync"
	"time"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

// Registry is a keyed store of circuit breakers, one per provider
// name, created lazily. Breakers live for the registry's lifetime and
// are shared by every request targeting the same provider.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
	}
}

// GetOrCreate returns the breaker for name, creating it on first use.
// Threshold and timeout only apply on creation; the first call wins.
func (r *Registry) GetOrCreate(name string, failureThreshold int, timeout time.Duration) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.breakers[name]
	if !ok {
		cb = New(name, failureThreshold, timeout)
		r.breakers[name] = cb
	}
	return cb
}

// Get returns the breaker for name, or nil if it was never created
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.breakers[name]
}

// AllStats returns snapshots for every breaker in the registry
func (r *Registry) AllStats() []types.BreakerStats {
	r.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		breakers = append(breakers, cb)
	}
	r.mu.Unlock()

	stats := make([]types.BreakerStats, 0, len(breakers))
	for _, cb := range breakers {
		stats = append(stats, cb.Stats())
	}
	return stats
}
