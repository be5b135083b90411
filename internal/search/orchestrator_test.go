package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsbakr/minerva-library/internal/providers"
)

// fakeProvider is a scriptable provider for orchestrator tests.
type fakeProvider struct {
	name    string
	enabled bool
	delay   time.Duration
	result  *providers.SearchResult
	err     error
}

func (f *fakeProvider) Search(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) IsEnabled() bool { return f.enabled }

func rawArticle(title, doi, source string) providers.RawArticle {
	return providers.RawArticle{
		Title:  title,
		DOI:    doi,
		Source: source,
	}
}

func newTestOrchestrator(timeout time.Duration, sources ...providers.Provider) *Orchestrator {
	registry := providers.NewRegistry()
	for _, p := range sources {
		registry.Register(p)
	}
	return NewOrchestrator(registry, timeout, zerolog.Nop(), nil)
}

func TestOrchestrator_Search(t *testing.T) {
	t.Run("collects results from all providers in configuration order", func(t *testing.T) {
		a := &fakeProvider{
			name: "Alpha", enabled: true,
			result: &providers.SearchResult{
				Articles: []providers.RawArticle{rawArticle("First", "10.1/a", "Alpha")},
			},
		}
		b := &fakeProvider{
			name: "Beta", enabled: true,
			delay: 20 * time.Millisecond,
			result: &providers.SearchResult{
				Articles: []providers.RawArticle{rawArticle("Second", "10.1/b", "Beta")},
			},
		}

		o := newTestOrchestrator(time.Second, a, b)
		result := o.Search(context.Background(), providers.SearchParams{Query: "anything"})

		require.Equal(t, 2, len(result.Articles))
		assert.Equal(t, "First", result.Articles[0].Title)
		assert.Equal(t, "Second", result.Articles[1].Title)

		require.Equal(t, 2, len(result.Statuses))
		assert.Equal(t, "Alpha", result.Statuses[0].Name)
		assert.Equal(t, StateOK, result.Statuses[0].State)
		assert.Equal(t, 1, result.Statuses[0].ResultsCount)
		assert.Equal(t, "Beta", result.Statuses[1].Name)
		assert.Equal(t, StateOK, result.Statuses[1].State)
		assert.Greater(t, result.Statuses[1].ResponseTime, 0.0)
	})

	t.Run("skips disabled providers", func(t *testing.T) {
		a := &fakeProvider{name: "Alpha", enabled: true, result: &providers.SearchResult{}}
		b := &fakeProvider{name: "Beta", enabled: false}

		o := newTestOrchestrator(time.Second, a, b)
		result := o.Search(context.Background(), providers.SearchParams{Query: "anything"})

		require.Equal(t, 1, len(result.Statuses))
		assert.Equal(t, "Alpha", result.Statuses[0].Name)
	})

	t.Run("one provider's error never affects another", func(t *testing.T) {
		a := &fakeProvider{name: "Alpha", enabled: true, err: errors.New("upstream exploded")}
		b := &fakeProvider{
			name: "Beta", enabled: true,
			result: &providers.SearchResult{
				Articles: []providers.RawArticle{rawArticle("Survivor", "10.1/b", "Beta")},
			},
		}

		o := newTestOrchestrator(time.Second, a, b)
		result := o.Search(context.Background(), providers.SearchParams{Query: "anything"})

		require.Equal(t, 1, len(result.Articles))
		assert.Equal(t, "Survivor", result.Articles[0].Title)

		assert.Equal(t, StateError, result.Statuses[0].State)
		assert.Equal(t, "upstream exploded", result.Statuses[0].ErrorMessage)
		assert.Equal(t, StateOK, result.Statuses[1].State)
	})

	t.Run("slow provider times out and its late result is discarded", func(t *testing.T) {
		slow := &fakeProvider{
			name: "Slow", enabled: true,
			delay: 500 * time.Millisecond,
			result: &providers.SearchResult{
				Articles: []providers.RawArticle{rawArticle("Late", "10.1/late", "Slow")},
			},
		}
		fast := &fakeProvider{
			name: "Fast", enabled: true,
			result: &providers.SearchResult{
				Articles: []providers.RawArticle{rawArticle("On Time", "10.1/fast", "Fast")},
			},
		}

		o := newTestOrchestrator(50*time.Millisecond, slow, fast)
		start := time.Now()
		result := o.Search(context.Background(), providers.SearchParams{Query: "anything"})
		elapsed := time.Since(start)

		// The fan-out returns at the timeout, not after the slow provider.
		assert.Less(t, elapsed, 400*time.Millisecond)

		require.Equal(t, 1, len(result.Articles))
		assert.Equal(t, "On Time", result.Articles[0].Title)

		assert.Equal(t, StateTimeout, result.Statuses[0].State)
		assert.Equal(t, "provider exceeded its time budget", result.Statuses[0].ErrorMessage)
		assert.Equal(t, 0, result.Statuses[0].ResultsCount)
		assert.Equal(t, StateOK, result.Statuses[1].State)
	})

	t.Run("caller cancellation is an error, not a timeout", func(t *testing.T) {
		slow := &fakeProvider{
			name: "Slow", enabled: true,
			delay:  time.Second,
			result: &providers.SearchResult{},
		}

		o := newTestOrchestrator(10*time.Second, slow)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		result := o.Search(ctx, providers.SearchParams{Query: "anything"})

		require.Equal(t, 1, len(result.Statuses))
		assert.Equal(t, StateError, result.Statuses[0].State)
	})

	t.Run("malformed records downgrade to partial", func(t *testing.T) {
		p := &fakeProvider{
			name: "Mixed", enabled: true,
			result: &providers.SearchResult{
				Articles: []providers.RawArticle{
					rawArticle("Good Record", "10.1/good", "Mixed"),
					rawArticle("", "10.1/bad", "Mixed"), // no title, dropped
				},
			},
		}

		o := newTestOrchestrator(time.Second, p)
		result := o.Search(context.Background(), providers.SearchParams{Query: "anything"})

		require.Equal(t, 1, len(result.Articles))
		assert.Equal(t, StatePartial, result.Statuses[0].State)
		assert.Equal(t, 1, result.Statuses[0].ResultsCount)
		assert.True(t, result.Statuses[0].Usable())
	})

	t.Run("empty result is ok, not partial", func(t *testing.T) {
		p := &fakeProvider{
			name: "Empty", enabled: true,
			result: &providers.SearchResult{Articles: []providers.RawArticle{}},
		}

		o := newTestOrchestrator(time.Second, p)
		result := o.Search(context.Background(), providers.SearchParams{Query: "anything"})

		assert.Empty(t, result.Articles)
		assert.Equal(t, StateOK, result.Statuses[0].State)
	})

	t.Run("no providers", func(t *testing.T) {
		o := newTestOrchestrator(time.Second)
		result := o.Search(context.Background(), providers.SearchParams{Query: "anything"})

		assert.Empty(t, result.Articles)
		assert.Empty(t, result.Statuses)
	})
}

func TestTotalFailure(t *testing.T) {
	testCases := []struct {
		name     string
		statuses []ProviderStatus
		expected bool
	}{
		{
			name:     "no statuses",
			statuses: nil,
			expected: false,
		},
		{
			name: "all errored",
			statuses: []ProviderStatus{
				{Name: "A", State: StateError},
				{Name: "B", State: StateTimeout},
			},
			expected: true,
		},
		{
			name: "one usable",
			statuses: []ProviderStatus{
				{Name: "A", State: StateError},
				{Name: "B", State: StateOK},
			},
			expected: false,
		},
		{
			name: "partial counts as usable",
			statuses: []ProviderStatus{
				{Name: "A", State: StateError},
				{Name: "B", State: StatePartial},
			},
			expected: false,
		},
		{
			name: "all ok with zero results is not a failure",
			statuses: []ProviderStatus{
				{Name: "A", State: StateOK},
				{Name: "B", State: StateOK},
			},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, TotalFailure(tc.statuses))
		})
	}
}

func TestDatabasesSearched(t *testing.T) {
	statuses := []ProviderStatus{
		{Name: "Alpha", State: StateOK, ResultsCount: 3},
		{Name: "Beta", State: StateError},
		{Name: "Gamma", State: StatePartial, ResultsCount: 1},
		{Name: "Delta", State: StateOK, ResultsCount: 0},
	}

	assert.Equal(t, []string{"Alpha", "Gamma"}, DatabasesSearched(statuses))
}
