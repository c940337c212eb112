package types

// SourceID identifies a search data source
type SourceID string

const (
	SourceGoogle      SourceID = "google"
	SourceBing        SourceID = "bing"
	SourceDuckDuckGo  SourceID = "duckduckgo"
	SourceAzureVision SourceID = "azure_vision"
)

// DefaultSources are queried when a request does not name any
var DefaultSources = []SourceID{SourceGoogle, SourceBing, SourceDuckDuckGo}

// ProviderConfig represents search provider configuration
type ProviderConfig struct {
	ID   SourceID `json:"id" yaml:"id"`
	Name string   `json:"name" yaml:"name"`

	// API settings
	APIHost string `json:"api_host" yaml:"api_host"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Google Custom Search engine ID (cx)
	EngineID string `json:"engine_id,omitempty" yaml:"engine_id,omitempty"`

	// Optional settings
	Timeout int `json:"timeout,omitempty" yaml:"timeout,omitempty"` // seconds
}

// Validate validates the provider configuration. API hosts are
// defaulted by the provider constructors, so only the ID is required.
func (c *ProviderConfig) Validate() error {
	if c.ID == "" {
		return ErrInvalidProviderID
	}
	return nil
}

// Configured reports whether the provider has the credentials it needs.
// A provider without credentials is skipped, not an error.
func (c *ProviderConfig) Configured() bool {
	switch c.ID {
	case SourceDuckDuckGo:
		// DuckDuckGo doesn't require an API key
		return true
	case SourceGoogle:
		return c.APIKey != "" && c.EngineID != ""
	default:
		return c.APIKey != ""
	}
}
