package provider

import (
	"fmt"
	"sync"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

// Constructor builds a provider from its configuration
type Constructor func(*types.ProviderConfig) (Provider, error)

// Factory creates provider instances from configuration
type Factory struct {
	mu           sync.RWMutex
	constructors map[types.SourceID]Constructor
}

// NewFactory creates a factory with the built-in providers registered
func NewFactory() *Factory {
	f := &Factory{
		constructors: make(map[types.SourceID]Constructor),
	}

	f.Register(types.SourceGoogle, NewGoogleProvider)
	f.Register(types.SourceBing, NewBingProvider)
	f.Register(types.SourceDuckDuckGo, NewDuckDuckGoProvider)

	return f
}

// Register registers a provider constructor
func (f *Factory) Register(id types.SourceID, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[id] = constructor
}

// Create creates a provider instance from configuration
func (f *Factory) Create(config *types.ProviderConfig) (Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	f.mu.RLock()
	constructor, exists := f.constructors[config.ID]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", types.ErrProviderNotFound, config.ID)
	}
	return constructor(config)
}

// ListProviders returns all registered provider IDs
func (f *Factory) ListProviders() []types.SourceID {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ids := make([]types.SourceID, 0, len(f.constructors))
	for id := range f.constructors {
		ids = append(ids, id)
	}
	return ids
}
