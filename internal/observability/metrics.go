package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the search aggregation
// service, organized by subsystem: searches, providers, deduplication, and
// enrichment. All counters and histograms are registered via promauto for
// automatic registration with the default Prometheus registry.
type Metrics struct {
	// SearchesTotal counts aggregated search requests handled.
	SearchesTotal prometheus.Counter

	// SearchDuration observes end-to-end search duration in seconds,
	// covering fan-out through ranking.
	SearchDuration prometheus.Histogram

	// SearchResults observes the distribution of merged result counts
	// per search.
	SearchResults prometheus.Histogram

	// ProviderRequests counts provider fan-out calls, labeled by source
	// and outcome state (ok, error, timeout, partial).
	ProviderRequests *prometheus.CounterVec

	// ProviderDuration observes per-provider call duration in seconds,
	// labeled by source. Timed-out calls record the full time budget.
	ProviderDuration *prometheus.HistogramVec

	// ProviderResults observes the number of normalized articles each
	// provider contributed per call, labeled by source.
	ProviderResults *prometheus.HistogramVec

	// ProviderRateLimited counts rate-limit responses from provider
	// APIs, labeled by source.
	ProviderRateLimited *prometheus.CounterVec

	// DuplicatesMerged counts articles that were collapsed into another
	// article during deduplication.
	DuplicatesMerged prometheus.Counter

	// EnrichmentLookups counts open-access enrichment lookups, labeled
	// by outcome (enriched, miss, error).
	EnrichmentLookups *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of aggregated searches handled",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end duration of aggregated searches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		SearchResults: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of merged results per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200, 500},
		}),

		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of provider calls by source and outcome",
		}, []string{"source", "state"}),
		ProviderDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Duration of provider calls in seconds by source",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
		ProviderResults: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_results",
			Help:      "Number of normalized articles per provider call by source",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}, []string{"source"}),
		ProviderRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_rate_limited_total",
			Help:      "Total number of rate limit responses from providers",
		}, []string{"source"}),

		DuplicatesMerged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_merged_total",
			Help:      "Total number of articles collapsed during deduplication",
		}),

		EnrichmentLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_lookups_total",
			Help:      "Total number of open-access enrichment lookups by outcome",
		}, []string{"outcome"}),
	}
}

// RecordProviderCall records one settled provider call.
func (m *Metrics) RecordProviderCall(source, state string, resultCount int, durationSeconds float64) {
	m.ProviderRequests.WithLabelValues(source, state).Inc()
	m.ProviderDuration.WithLabelValues(source).Observe(durationSeconds)
	m.ProviderResults.WithLabelValues(source).Observe(float64(resultCount))
}

// RecordProviderRateLimited records a rate limit response from a provider.
func (m *Metrics) RecordProviderRateLimited(source string) {
	m.ProviderRateLimited.WithLabelValues(source).Inc()
}

// RecordSearch records one completed aggregated search.
func (m *Metrics) RecordSearch(resultCount int, durationSeconds float64) {
	m.SearchesTotal.Inc()
	m.SearchDuration.Observe(durationSeconds)
	m.SearchResults.Observe(float64(resultCount))
}

// RecordDuplicatesMerged records articles collapsed during deduplication.
func (m *Metrics) RecordDuplicatesMerged(count int) {
	if count > 0 {
		m.DuplicatesMerged.Add(float64(count))
	}
}

// RecordEnrichmentLookup records one open-access lookup outcome.
func (m *Metrics) RecordEnrichmentLookup(outcome string) {
	m.EnrichmentLookups.WithLabelValues(outcome).Inc()
}
