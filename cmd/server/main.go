package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/searchmesh/searchmesh/internal/conf"
	"github.com/searchmesh/searchmesh/internal/pkg/logger"
	"github.com/searchmesh/searchmesh/internal/search/aggregator"
	"github.com/searchmesh/searchmesh/internal/search/breaker"
	"github.com/searchmesh/searchmesh/internal/search/dedup"
	"github.com/searchmesh/searchmesh/internal/search/enrich"
	"github.com/searchmesh/searchmesh/internal/search/provider"
	"github.com/searchmesh/searchmesh/internal/search/service"
	"github.com/searchmesh/searchmesh/internal/server"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger with config
	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("config loaded successfully")

	// Build search providers from configuration
	factory := provider.NewFactory()
	var providers []provider.Provider
	for _, pc := range config.ProviderConfigs() {
		p, err := factory.Create(pc)
		if err != nil {
			log.Fatal("failed to create provider",
				zap.String("provider", string(pc.ID)), zap.Error(err))
		}
		if !p.IsConfigured() {
			log.Warn("provider missing credentials, it will be skipped",
				zap.String("provider", string(pc.ID)))
		}
		providers = append(providers, p)
	}

	// Enrichment adapter for image searches
	enricher := enrich.NewAzureVision(config.AzureVisionProviderConfig())
	if !enricher.IsConfigured() {
		log.Info("image enrichment disabled, azure vision not configured")
	}

	// Circuit breakers and aggregation
	registry := breaker.NewRegistry()
	agg := aggregator.New(aggregator.Config{
		SearchTimeout:    config.Search.Timeout,
		BreakerThreshold: config.Search.CircuitBreaker.FailureThreshold,
		BreakerTimeout:   config.Search.CircuitBreaker.Timeout,
	}, providers, enricher, registry, log.Logger)

	// Deduplication pipeline
	var deduper aggregator.Deduplicator
	if config.Search.Dedup.Enable {
		deduper = dedup.NewDeduplicator(
			dedup.NewURLNormalizer(),
			dedup.NewFuzzyMatcher(config.Search.Dedup.FuzzyThreshold),
			true,
			log.Logger,
		)
	}

	// Initialize services
	searchService := service.NewSearchService(agg, deduper, log.Logger)

	// Initialize server
	httpServer := server.NewHTTPServer(config, log.Logger, searchService, agg, registry)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
