// Package main provides the entry point for the search aggregation server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itsbakr/minerva-library/internal/config"
	"github.com/itsbakr/minerva-library/internal/observability"
	"github.com/itsbakr/minerva-library/internal/providers"
	"github.com/itsbakr/minerva-library/internal/providers/arxiv"
	"github.com/itsbakr/minerva-library/internal/providers/crossref"
	"github.com/itsbakr/minerva-library/internal/providers/openalex"
	"github.com/itsbakr/minerva-library/internal/providers/unpaywall"
	"github.com/itsbakr/minerva-library/internal/search"
	httpserver "github.com/itsbakr/minerva-library/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("minerva-library server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("minerva")
	}

	// Register search providers. Registration order is the configuration
	// order used for merge tie-breaks.
	registry := providers.NewRegistry()
	registry.Register(openalex.New(openalex.Config{
		BaseURL:   cfg.Providers.OpenAlex.BaseURL,
		Email:     cfg.Providers.OpenAlex.Email,
		Timeout:   cfg.Providers.OpenAlex.Timeout,
		RateLimit: cfg.Providers.OpenAlex.RateLimit,
		Enabled:   cfg.Providers.OpenAlex.Enabled,
	}))
	registry.Register(crossref.New(crossref.Config{
		BaseURL:   cfg.Providers.Crossref.BaseURL,
		Email:     cfg.Providers.Crossref.Email,
		Timeout:   cfg.Providers.Crossref.Timeout,
		RateLimit: cfg.Providers.Crossref.RateLimit,
		Enabled:   cfg.Providers.Crossref.Enabled,
	}))
	registry.Register(arxiv.New(arxiv.Config{
		BaseURL:   cfg.Providers.ArXiv.BaseURL,
		Timeout:   cfg.Providers.ArXiv.Timeout,
		RateLimit: cfg.Providers.ArXiv.RateLimit,
		Enabled:   cfg.Providers.ArXiv.Enabled,
	}))
	logger.Info().Strs("providers", registry.Names()).Msg("providers registered")

	// Build the search pipeline.
	orchestrator := search.NewOrchestrator(registry, cfg.Search.ProviderTimeout, logger, metrics)
	dedup := search.NewDeduplicator(cfg.Search.TitleSimilarityThreshold, logger)

	var enricher *search.Enricher
	if cfg.Providers.Unpaywall.Enabled {
		lookup := unpaywall.New(unpaywall.Config{
			BaseURL:   cfg.Providers.Unpaywall.BaseURL,
			Email:     cfg.Providers.Unpaywall.Email,
			Timeout:   cfg.Providers.Unpaywall.Timeout,
			RateLimit: cfg.Providers.Unpaywall.RateLimit,
			Enabled:   cfg.Providers.Unpaywall.Enabled,
		})
		enricher = search.NewEnricher(lookup, cfg.Search.EnrichConcurrency, logger, metrics)
	}

	service := search.NewService(orchestrator, dedup, enricher, logger, metrics)

	// Create HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(httpCfg, service, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP REST API server in background.
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("minerva-library is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down minerva-library")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("minerva-library shutdown complete")
	return nil
}
