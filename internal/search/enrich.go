package search

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/itsbakr/minerva-library/internal/domain"
	"github.com/itsbakr/minerva-library/internal/observability"
	"github.com/itsbakr/minerva-library/internal/providers"
)

// DefaultEnrichConcurrency bounds how many open-access lookups run at once.
const DefaultEnrichConcurrency = 10

// OpenAccessLookup resolves open-access availability for a single DOI.
// A domain.NotFoundError return means "unknown to the provider" and is not
// a failure.
type OpenAccessLookup interface {
	Lookup(ctx context.Context, doi string) (*providers.OpenAccessInfo, error)
	Name() string
	IsEnabled() bool
}

// Enricher fills open-access gaps on merged articles by DOI. It only ever
// adds information: an article already marked open access, or already
// carrying an open-access URL, keeps what the merge produced.
type Enricher struct {
	lookup      OpenAccessLookup
	concurrency int
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

// NewEnricher creates an Enricher. A nil lookup disables enrichment. A
// non-positive concurrency falls back to DefaultEnrichConcurrency.
func NewEnricher(lookup OpenAccessLookup, concurrency int, logger zerolog.Logger, metrics *observability.Metrics) *Enricher {
	if concurrency <= 0 {
		concurrency = DefaultEnrichConcurrency
	}
	return &Enricher{
		lookup:      lookup,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "enricher").Logger(),
		metrics:     metrics,
	}
}

// Enrich looks up open-access data for every article with a DOI and an
// open-access gap, mutating the slice in place. Per-article lookup
// failures degrade to "no enrichment" and never abort the pass; the
// returned status summarizes the lookup provider's participation.
func (e *Enricher) Enrich(ctx context.Context, articles []domain.Article) *ProviderStatus {
	if e.lookup == nil || !e.lookup.IsEnabled() {
		return nil
	}

	status := &ProviderStatus{Name: e.lookup.Name(), State: StateOK}

	var candidates []int
	for i, a := range articles {
		if a.DOI == "" {
			continue
		}
		if a.IsOpenAccess && a.OpenAccessURL != "" {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return status
	}

	start := time.Now()
	var enriched, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, idx := range candidates {
		idx := idx
		g.Go(func() error {
			a := &articles[idx]
			info, err := e.lookup.Lookup(gctx, a.DOI)
			if err != nil {
				var nf *domain.NotFoundError
				if errors.As(err, &nf) {
					e.recordLookup("miss")
					return nil
				}
				failed.Add(1)
				e.recordLookup("error")
				alog := observability.WithArticleContext(e.logger, a.ID, a.DOI)
				alog.Debug().Err(err).Msg("open-access lookup failed")
				return nil
			}
			if info == nil {
				e.recordLookup("miss")
				return nil
			}
			if !a.IsOpenAccess && info.IsOpenAccess {
				a.IsOpenAccess = true
			}
			if a.OpenAccessURL == "" && info.OpenAccessURL != "" {
				a.OpenAccessURL = info.OpenAccessURL
			}
			enriched.Add(1)
			e.recordLookup("enriched")
			return nil
		})
	}
	// Workers never return errors; failures are counted instead.
	_ = g.Wait()

	status.ResponseTime = time.Since(start).Seconds()
	status.ResultsCount = int(enriched.Load())
	if failed.Load() > 0 {
		if enriched.Load() == 0 {
			status.State = StateError
			status.ErrorMessage = "all open-access lookups failed"
		} else {
			status.State = StatePartial
		}
	}
	return status
}

func (e *Enricher) recordLookup(outcome string) {
	if e.metrics != nil {
		e.metrics.RecordEnrichmentLookup(outcome)
	}
}
