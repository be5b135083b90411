package search

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/itsbakr/minerva-library/internal/domain"
	"github.com/itsbakr/minerva-library/internal/observability"
	"github.com/itsbakr/minerva-library/internal/providers"
)

// DefaultProviderTimeout is the per-provider time budget for one search
// call.
const DefaultProviderTimeout = 30 * time.Second

// ProviderState is the outcome of one provider's participation in a
// search call.
type ProviderState string

const (
	// StateOK means the provider returned a well-formed result in time.
	StateOK ProviderState = "ok"

	// StateError means the provider failed with an error.
	StateError ProviderState = "error"

	// StateTimeout means the provider exceeded its time budget. Its
	// eventual late result, if any, is discarded.
	StateTimeout ProviderState = "timeout"

	// StatePartial means the provider returned a usable but incomplete
	// payload; its results are still included.
	StatePartial ProviderState = "partial"
)

// ProviderStatus is the per-provider outcome record attached to every
// search response. Exactly one exists per configured provider per call,
// created at dispatch time and finalized when the call settles or its
// timeout elapses.
type ProviderStatus struct {
	Name         string        `json:"name"`
	State        ProviderState `json:"status"`
	ResultsCount int           `json:"results_count"`
	ResponseTime float64       `json:"response_time"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Usable reports whether the provider contributed results to the search.
func (s ProviderStatus) Usable() bool {
	return s.State == StateOK || s.State == StatePartial
}

// FanOutResult is the collected output of one orchestrated fan-out: the
// union of all usable providers' normalized articles, in provider
// configuration order, plus one status per configured provider.
type FanOutResult struct {
	Articles []domain.Article
	Statuses []ProviderStatus
}

// Orchestrator fans a search out to every enabled provider concurrently,
// each call wrapped with an independent timeout. One provider's failure or
// timeout never affects another's call, and the orchestrator itself never
// fails because providers did.
type Orchestrator struct {
	registry *providers.Registry
	timeout  time.Duration
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewOrchestrator creates an orchestrator over the given registry. A zero
// timeout falls back to DefaultProviderTimeout.
func NewOrchestrator(registry *providers.Registry, timeout time.Duration, logger zerolog.Logger, metrics *observability.Metrics) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Orchestrator{
		registry: registry,
		timeout:  timeout,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
		metrics:  metrics,
	}
}

// slot is one provider's private result cell. Each fan-out goroutine
// writes only to its own slot, so no locking is needed; merge runs
// single-threaded after the barrier.
type slot struct {
	articles []domain.Article
	status   ProviderStatus
}

// settled carries a provider call's outcome across the timeout boundary.
type settled struct {
	result *providers.SearchResult
	err    error
}

// Search dispatches one call per enabled provider, all starting together.
// It blocks until every provider has either completed or been timed out,
// so overall latency tracks the slowest completing-or-timed-out provider,
// not the sum.
func (o *Orchestrator) Search(ctx context.Context, params providers.SearchParams) *FanOutResult {
	sources := o.registry.Enabled()
	slots := make([]slot, len(sources))

	done := make(chan int, len(sources))
	for i, p := range sources {
		go func(i int, p providers.Provider) {
			slots[i] = o.callProvider(ctx, p, params)
			done <- i
		}(i, p)
	}
	for range sources {
		<-done
	}

	result := &FanOutResult{
		Statuses: make([]ProviderStatus, len(sources)),
	}
	for i := range slots {
		result.Statuses[i] = slots[i].status
		result.Articles = append(result.Articles, slots[i].articles...)
	}
	return result
}

// callProvider runs one provider call under its own timeout and finalizes
// its status. The provider call itself runs in an inner goroutine writing
// to a buffered channel: when the timeout elapses first, the orchestrator
// walks away and the late result is discarded on arrival.
func (o *Orchestrator) callProvider(ctx context.Context, p providers.Provider, params providers.SearchParams) slot {
	name := p.Name()
	status := ProviderStatus{Name: name}
	logger := observability.WithSearchContext(o.logger, params.Query, name)

	pctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	ch := make(chan settled, 1)
	start := time.Now()
	go func() {
		result, err := p.Search(pctx, params)
		ch <- settled{result: result, err: err}
	}()

	var out slot
	select {
	case s := <-ch:
		status.ResponseTime = time.Since(start).Seconds()
		switch {
		case s.err != nil && isTimeout(s.err):
			status.State = StateTimeout
			status.ErrorMessage = "provider exceeded its time budget"
		case s.err != nil:
			status.State = StateError
			status.ErrorMessage = s.err.Error()
			if errors.Is(s.err, domain.ErrRateLimited) && o.metrics != nil {
				o.metrics.RecordProviderRateLimited(name)
			}
			logger.Warn().Err(s.err).Msg("provider search failed")
		default:
			out.articles, status = o.normalizeResult(name, s.result, status)
		}
	case <-pctx.Done():
		status.ResponseTime = time.Since(start).Seconds()
		if ctx.Err() != nil {
			// Caller cancelled the whole search, not this provider.
			status.State = StateError
			status.ErrorMessage = ctx.Err().Error()
		} else {
			status.State = StateTimeout
			status.ErrorMessage = "provider exceeded its time budget"
			logger.Warn().
				Dur("timeout", o.timeout).
				Msg("provider timed out, discarding late result")
		}
	}

	if o.metrics != nil {
		o.metrics.RecordProviderCall(name, string(status.State), status.ResultsCount, status.ResponseTime)
	}

	out.status = status
	return out
}

// normalizeResult converts a provider's raw records, dropping malformed
// ones. Dropped records downgrade an otherwise ok provider to partial.
func (o *Orchestrator) normalizeResult(name string, result *providers.SearchResult, status ProviderStatus) ([]domain.Article, ProviderStatus) {
	if result == nil {
		status.State = StateOK
		return nil, status
	}

	articles := make([]domain.Article, 0, len(result.Articles))
	dropped := 0
	for _, raw := range result.Articles {
		article, err := NormalizeArticle(raw)
		if err != nil {
			dropped++
			o.logger.Debug().Str("provider", name).Err(err).Msg("dropping malformed record")
			continue
		}
		articles = append(articles, article)
	}

	status.ResultsCount = len(articles)
	if dropped > 0 && len(articles) > 0 {
		status.State = StatePartial
	} else {
		status.State = StateOK
	}
	return articles, status
}

// isTimeout reports whether a provider error is a deadline expiry.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// TotalFailure reports the "all providers broken" condition: no usable
// results and at least one hard error or timeout. It stays distinguishable
// from "legitimately zero results" by inspecting statuses, never by
// response shape.
func TotalFailure(statuses []ProviderStatus) bool {
	anyBroken := false
	for _, s := range statuses {
		if s.Usable() {
			return false
		}
		if s.State == StateError || s.State == StateTimeout {
			anyBroken = true
		}
	}
	return anyBroken
}

// DatabasesSearched lists the providers that contributed usable results,
// in configuration order.
func DatabasesSearched(statuses []ProviderStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if s.Usable() && s.ResultsCount > 0 {
			out = append(out, s.Name)
		}
	}
	return out
}
