package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

// Provider is the adapter contract consumed by the aggregator. Search
// either returns the full parsed result list or an error; it never
// silently returns a partial page. IsConfigured must be answerable
// without I/O.
type Provider interface {
	// Source returns the provider's source identifier
	Source() types.SourceID

	// Name returns the human-readable provider name
	Name() string

	// IsConfigured reports whether required credentials are present
	IsConfigured() bool

	// Search executes a search query
	Search(ctx context.Context, query string, maxResults int, imageSearch bool) ([]*types.SearchResult, error)
}

// BaseProvider provides the shared HTTP plumbing for all providers
type BaseProvider struct {
	config     *types.ProviderConfig
	httpClient *http.Client
}

// NewBaseProvider creates a base provider with a pooled HTTP client
func NewBaseProvider(config *types.ProviderConfig) *BaseProvider {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &BaseProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Source returns the provider's source identifier
func (b *BaseProvider) Source() types.SourceID {
	return b.config.ID
}

// Name returns the provider name
func (b *BaseProvider) Name() string {
	return b.config.Name
}

// Config returns the provider configuration
func (b *BaseProvider) Config() *types.ProviderConfig {
	return b.config
}

// IsConfigured reports whether required credentials are present
func (b *BaseProvider) IsConfigured() bool {
	return b.config.Configured()
}

// do executes the request and returns the response body. A non-200
// status becomes a ProviderError carrying the status and body.
func (b *BaseProvider) do(req *http.Request) ([]byte, error) {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, &types.ProviderError{
			Provider: b.Source(),
			Code:     "REQUEST_FAILED",
			Message:  "failed to execute request",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.ProviderError{
			Provider: b.Source(),
			Code:     "READ_FAILED",
			Message:  "failed to read response body",
			Err:      err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &types.ProviderError{
			Provider: b.Source(),
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  string(body),
		}
	}
	return body, nil
}
