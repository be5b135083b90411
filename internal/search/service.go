package search

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/itsbakr/minerva-library/internal/domain"
	"github.com/itsbakr/minerva-library/internal/observability"
	"github.com/itsbakr/minerva-library/internal/providers"
)

// Request is a validated search request.
type Request struct {
	Query          string `validate:"required"`
	Page           int    `validate:"min=1"`
	PerPage        int    `validate:"min=1,max=100"`
	YearMin        *int   `validate:"omitempty,min=1900,max=2025"`
	YearMax        *int   `validate:"omitempty,min=1900,max=2025"`
	OpenAccessOnly bool
}

// Response is the outcome of one search call. Results holds the requested
// page slice of the fully ranked set; TotalResults counts the whole
// filtered set, not the page.
type Response struct {
	Results           []domain.Article `json:"results"`
	TotalResults      int              `json:"total_results"`
	SearchTime        float64          `json:"search_time"`
	DatabasesSearched []string         `json:"databases_searched"`
	ProviderStatus    []ProviderStatus `json:"provider_status"`
}

// Service runs the full search pipeline: fan-out, normalization, merge,
// enrichment, ranking, filtering, pagination.
type Service struct {
	orchestrator *Orchestrator
	dedup        *Deduplicator
	enricher     *Enricher
	ranker       *Ranker
	validate     *validator.Validate
	logger       zerolog.Logger
	metrics      *observability.Metrics
}

// NewService wires the pipeline stages together. The enricher may be nil,
// which disables open-access enrichment.
func NewService(orchestrator *Orchestrator, dedup *Deduplicator, enricher *Enricher, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		orchestrator: orchestrator,
		dedup:        dedup,
		enricher:     enricher,
		ranker:       NewRanker(),
		validate:     validator.New(),
		logger:       logger.With().Str("component", "search_service").Logger(),
		metrics:      metrics,
	}
}

// Search answers one query. Provider failures and timeouts never fail the
// call; only an invalid request does. A search where every provider broke
// still succeeds, with empty results and the failures visible in
// ProviderStatus.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	logger := s.logger
	if reqID := observability.RequestIDFromContext(ctx); reqID != "" {
		logger = observability.WithRequestContext(logger, reqID)
	}
	logger = logger.With().Str("query", req.Query).Logger()
	start := time.Now()

	// Providers are asked for a single window from the start of their
	// corpus that covers the requested page. Pagination happens only
	// after the full merged set is ranked; pushing the page offset down
	// would skip it twice.
	params := providers.SearchParams{
		Query:          req.Query,
		Page:           1,
		PerPage:        req.Page * req.PerPage,
		OpenAccessOnly: req.OpenAccessOnly,
	}
	if req.YearMin != nil {
		params.YearMin = *req.YearMin
	}
	if req.YearMax != nil {
		params.YearMax = *req.YearMax
	}
	fanout := s.orchestrator.Search(ctx, params)
	statuses := fanout.Statuses

	if TotalFailure(statuses) {
		logger.Error().Msg("all providers failed or timed out")
	}

	merged := s.dedup.Merge(fanout.Articles)

	if s.enricher != nil {
		if status := s.enricher.Enrich(ctx, merged); status != nil {
			statuses = append(statuses, *status)
		}
	}

	s.ranker.Rank(req.Query, merged)

	// Providers may filter natively, but merging can resurrect values a
	// single provider filtered out, so the full filter set is applied
	// again here.
	filtered := applyFilters(merged, req)

	resp := &Response{
		Results:           paginate(filtered, req.Page, req.PerPage),
		TotalResults:      len(filtered),
		SearchTime:        time.Since(start).Seconds(),
		DatabasesSearched: DatabasesSearched(fanout.Statuses),
		ProviderStatus:    statuses,
	}

	if s.metrics != nil {
		s.metrics.RecordSearch(resp.TotalResults, resp.SearchTime)
		s.metrics.RecordDuplicatesMerged(len(fanout.Articles) - len(merged))
	}

	logger.Info().
		Int("total_results", resp.TotalResults).
		Float64("search_time", resp.SearchTime).
		Strs("databases_searched", resp.DatabasesSearched).
		Msg("search completed")

	return resp, nil
}

// validateRequest applies field validation plus the cross-field year
// ordering rule.
func (s *Service) validateRequest(req Request) error {
	if err := s.validate.Struct(req); err != nil {
		return domain.NewValidationError("request", fmt.Sprintf("invalid search request: %v", err))
	}
	if req.YearMin != nil && req.YearMax != nil && *req.YearMin > *req.YearMax {
		return domain.NewValidationError("year_min", "must not exceed year_max")
	}
	return nil
}

// applyFilters keeps only articles matching the request's year range and
// open-access constraint, preserving order.
func applyFilters(articles []domain.Article, req Request) []domain.Article {
	if req.YearMin == nil && req.YearMax == nil && !req.OpenAccessOnly {
		return articles
	}
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if req.OpenAccessOnly && !a.IsOpenAccess {
			continue
		}
		if req.YearMin != nil && (a.Year == 0 || a.Year < *req.YearMin) {
			continue
		}
		if req.YearMax != nil && (a.Year == 0 || a.Year > *req.YearMax) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// paginate slices one page out of the ranked set. Pages past the end are
// empty, not an error.
func paginate(articles []domain.Article, page, perPage int) []domain.Article {
	start := (page - 1) * perPage
	if start >= len(articles) {
		return []domain.Article{}
	}
	end := start + perPage
	if end > len(articles) {
		end = len(articles)
	}
	return articles[start:end]
}
