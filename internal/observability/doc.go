// Package observability provides logging, metrics, and context helpers for
// the search aggregation service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, providers, dedup, and enrichment
//   - Context helpers for propagating request data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("request_id", reqID).Msg("search started")
//
// Add search context to a logger:
//
//	logger = observability.WithSearchContext(logger, query, source)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("minerva")
//
// Record metrics:
//
//	metrics.RecordSearch(resultCount, elapsed.Seconds())
//	metrics.RecordProviderCall("openalex", "ok", 25, 0.8)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	reqID := observability.RequestIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request correlation identifier
//   - query: the user's search query
//   - source: provider name (openalex, crossref, arxiv, unpaywall)
//   - doi: normalized document identifier
//   - article_id: merged article identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
