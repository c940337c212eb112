package conf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Search    SearchConfig    `mapstructure:"search"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LogConfig struct {
	Level            string        `mapstructure:"level"`
	Format           string        `mapstructure:"format"`
	Output           string        `mapstructure:"output"`
	File             FileLogConfig `mapstructure:"file"`
	EnableCaller     bool          `mapstructure:"enablecaller"`
	EnableStacktrace bool          `mapstructure:"enablestacktrace"`
}

type FileLogConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxsize"`
	MaxAge     int    `mapstructure:"maxage"`
	MaxBackups int    `mapstructure:"maxbackups"`
	Compress   bool   `mapstructure:"compress"`
}

type SearchConfig struct {
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxResults     int                  `mapstructure:"max_results"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Dedup          DedupConfig          `mapstructure:"dedup"`
}

type CircuitBreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

type DedupConfig struct {
	Enable         bool    `mapstructure:"enable"`
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
}

type ProvidersConfig struct {
	Google      GoogleConfig      `mapstructure:"google"`
	Bing        BingConfig        `mapstructure:"bing"`
	DuckDuckGo  DuckDuckGoConfig  `mapstructure:"duckduckgo"`
	AzureVision AzureVisionConfig `mapstructure:"azure_vision"`
}

type GoogleConfig struct {
	APIHost  string `mapstructure:"api_host"`
	APIKey   string `mapstructure:"api_key"`
	EngineID string `mapstructure:"engine_id"`
	Timeout  int    `mapstructure:"timeout"`
}

type BingConfig struct {
	APIHost string `mapstructure:"api_host"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"`
}

type DuckDuckGoConfig struct {
	APIHost string `mapstructure:"api_host"`
	Timeout int    `mapstructure:"timeout"`
}

type AzureVisionConfig struct {
	APIHost string `mapstructure:"api_host"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetEnvPrefix("SEARCHMESH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// ProviderConfigs converts the providers section into per-source
// provider configurations keyed for the factory.
func (c *Config) ProviderConfigs() []*types.ProviderConfig {
	return []*types.ProviderConfig{
		{
			ID:       types.SourceGoogle,
			Name:     "Google",
			APIHost:  c.Providers.Google.APIHost,
			APIKey:   c.Providers.Google.APIKey,
			EngineID: c.Providers.Google.EngineID,
			Timeout:  c.Providers.Google.Timeout,
		},
		{
			ID:      types.SourceBing,
			Name:    "Bing",
			APIHost: c.Providers.Bing.APIHost,
			APIKey:  c.Providers.Bing.APIKey,
			Timeout: c.Providers.Bing.Timeout,
		},
		{
			ID:      types.SourceDuckDuckGo,
			Name:    "DuckDuckGo",
			APIHost: c.Providers.DuckDuckGo.APIHost,
			Timeout: c.Providers.DuckDuckGo.Timeout,
		},
	}
}

// AzureVisionProviderConfig returns the enrichment adapter configuration
func (c *Config) AzureVisionProviderConfig() *types.ProviderConfig {
	return &types.ProviderConfig{
		ID:      types.SourceAzureVision,
		Name:    "Azure Vision",
		APIHost: c.Providers.AzureVision.APIHost,
		APIKey:  c.Providers.AzureVision.APIKey,
		Timeout: c.Providers.AzureVision.Timeout,
	}
}
