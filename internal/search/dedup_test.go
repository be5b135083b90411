package search

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsbakr/minerva-library/internal/domain"
)

func newTestDeduplicator() *Deduplicator {
	return NewDeduplicator(DefaultTitleSimilarityThreshold, zerolog.Nop())
}

func TestDeduplicator_Merge_DOI(t *testing.T) {
	t.Run("equal normalized DOIs merge", func(t *testing.T) {
		d := newTestDeduplicator()
		articles := []domain.Article{
			{
				Title:   "Climate Change",
				DOI:     "https://doi.org/10.1/X",
				Sources: []string{"OpenAlex"},
			},
			{
				Title:   "Climate change.",
				DOI:     "10.1/x",
				Sources: []string{"Crossref"},
			},
		}

		merged := d.Merge(articles)
		require.Equal(t, 1, len(merged))
		assert.Equal(t, []string{"OpenAlex", "Crossref"}, merged[0].Sources)
		assert.Equal(t, "Climate Change", merged[0].Title)
	})

	t.Run("distinct DOIs never merge regardless of titles", func(t *testing.T) {
		d := newTestDeduplicator()
		articles := []domain.Article{
			{Title: "Identical Title", DOI: "10.1/a", Sources: []string{"OpenAlex"}},
			{Title: "Identical Title", DOI: "10.1/b", Sources: []string{"Crossref"}},
		}

		merged := d.Merge(articles)
		assert.Equal(t, 2, len(merged))
	})

	t.Run("DOI and no-DOI fall back to title", func(t *testing.T) {
		d := newTestDeduplicator()
		articles := []domain.Article{
			{Title: "Sparse Attention Mechanisms", DOI: "10.1/a", Sources: []string{"Crossref"}},
			{Title: "Sparse Attention Mechanisms", Sources: []string{"arXiv"}},
		}

		merged := d.Merge(articles)
		require.Equal(t, 1, len(merged))
		assert.Equal(t, "10.1/a", merged[0].DOI)
		assert.Equal(t, []string{"Crossref", "arXiv"}, merged[0].Sources)
	})
}

func TestDeduplicator_Merge_TitleSimilarity(t *testing.T) {
	t.Run("near-identical titles merge", func(t *testing.T) {
		d := newTestDeduplicator()
		articles := []domain.Article{
			{Title: "A Survey of Graph Neural Networks", Sources: []string{"OpenAlex"}},
			{Title: "A survey of graph neural networks.", Sources: []string{"Crossref"}},
		}

		merged := d.Merge(articles)
		assert.Equal(t, 1, len(merged))
	})

	t.Run("dissimilar titles stay separate", func(t *testing.T) {
		d := newTestDeduplicator()
		articles := []domain.Article{
			{Title: "A Survey of Graph Neural Networks", Sources: []string{"OpenAlex"}},
			{Title: "Quantum Error Correction Codes", Sources: []string{"Crossref"}},
		}

		merged := d.Merge(articles)
		assert.Equal(t, 2, len(merged))
	})

	t.Run("similarity just below threshold stays separate", func(t *testing.T) {
		// 20 characters, 2 substitutions: similarity 0.9 < 0.92.
		d := newTestDeduplicator()
		articles := []domain.Article{
			{Title: "aaaaaaaaaaaaaaaaaaaa", Sources: []string{"OpenAlex"}},
			{Title: "aaaaaaaaaaaaaaaaaabb", Sources: []string{"Crossref"}},
		}

		merged := d.Merge(articles)
		assert.Equal(t, 2, len(merged))
	})

	t.Run("similarity above threshold merges", func(t *testing.T) {
		// 50 characters, 1 substitution: similarity 0.98 >= 0.92.
		d := newTestDeduplicator()
		long := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
		variant := "b" + long[1:]
		articles := []domain.Article{
			{Title: long, Sources: []string{"OpenAlex"}},
			{Title: variant, Sources: []string{"Crossref"}},
		}

		merged := d.Merge(articles)
		assert.Equal(t, 1, len(merged))
	})

	t.Run("empty titles never fuzzy-match", func(t *testing.T) {
		d := newTestDeduplicator()
		articles := []domain.Article{
			{Title: " ", Sources: []string{"OpenAlex"}},
			{Title: " ", Sources: []string{"Crossref"}},
		}

		merged := d.Merge(articles)
		assert.Equal(t, 2, len(merged))
	})
}

func TestDeduplicator_Merge_TransitiveClustering(t *testing.T) {
	// A matches B by DOI, B matches C by title, but A and C share nothing
	// directly. The chain still collapses into one group.
	d := newTestDeduplicator()
	articles := []domain.Article{
		{Title: "Completely Different Wording Here", DOI: "10.1/chain", Sources: []string{"OpenAlex"}},
		{Title: "Neural Architecture Search Methods", DOI: "10.1/chain", Sources: []string{"Crossref"}},
		{Title: "Neural architecture search methods", Sources: []string{"arXiv"}},
	}

	merged := d.Merge(articles)
	require.Equal(t, 1, len(merged))
	assert.Equal(t, []string{"OpenAlex", "Crossref", "arXiv"}, merged[0].Sources)
}

func TestDeduplicator_Merge_FieldPolicy(t *testing.T) {
	d := newTestDeduplicator()
	articles := []domain.Article{
		{
			Title:        "Message Passing in Graphs",
			DOI:          "10.1/mp",
			Sources:      []string{"OpenAlex"},
			Abstract:     "Short.",
			Authors:      []domain.Author{{Name: "John Smith"}},
			Year:         0,
			CitedByCount: 10,
			URL:          "",
		},
		{
			Title:         "Message Passing in Graphs",
			DOI:           "10.1/mp",
			Sources:       []string{"Crossref"},
			Abstract:      "A considerably longer abstract about message passing.",
			Authors:       []domain.Author{{Name: "Smith, John"}, {Name: "Jane Doe"}},
			Year:          2019,
			CitedByCount:  250,
			IsOpenAccess:  true,
			OpenAccessURL: "https://example.org/pdf",
			URL:           "https://doi.org/10.1/mp",
		},
	}

	merged := d.Merge(articles)
	require.Equal(t, 1, len(merged))
	got := merged[0]

	// Longest abstract wins.
	assert.Equal(t, "A considerably longer abstract about message passing.", got.Abstract)
	// Max citation count wins.
	assert.Equal(t, 250, got.CitedByCount)
	// Open access is sticky.
	assert.True(t, got.IsOpenAccess)
	assert.Equal(t, "https://example.org/pdf", got.OpenAccessURL)
	// First non-null year and URL win.
	assert.Equal(t, 2019, got.Year)
	assert.Equal(t, "https://doi.org/10.1/mp", got.URL)
	// Authors union by normalized name, first-seen order: "Smith, John"
	// collapses into "John Smith".
	require.Equal(t, 2, len(got.Authors))
	assert.Equal(t, "John Smith", got.Authors[0].Name)
	assert.Equal(t, "Jane Doe", got.Authors[1].Name)
}

func TestDeduplicator_Merge_Deterministic(t *testing.T) {
	d := newTestDeduplicator()
	build := func() []domain.Article {
		return []domain.Article{
			{Title: "Alpha Study", DOI: "10.1/alpha", Sources: []string{"OpenAlex"}},
			{Title: "Beta Study", Sources: []string{"OpenAlex"}},
			{Title: "Alpha study", DOI: "10.1/alpha", Sources: []string{"Crossref"}},
			{Title: "Gamma Study", DOI: "10.1/gamma", Sources: []string{"Crossref"}},
		}
	}

	first := d.Merge(build())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, d.Merge(build()))
	}
}

func TestDeduplicator_Merge_Idempotent(t *testing.T) {
	d := newTestDeduplicator()
	articles := []domain.Article{
		{Title: "Alpha Study", DOI: "10.1/alpha", Sources: []string{"OpenAlex"}},
		{Title: "Alpha study", DOI: "10.1/alpha", Sources: []string{"Crossref"}},
		{Title: "Beta Study", Sources: []string{"arXiv"}},
	}

	once := d.Merge(articles)
	twice := d.Merge(once)
	assert.Equal(t, once, twice)
}

func TestDeduplicator_Merge_Small(t *testing.T) {
	d := newTestDeduplicator()

	assert.Empty(t, d.Merge(nil))

	single := []domain.Article{{Title: "Lone Work", Sources: []string{"OpenAlex"}}}
	assert.Equal(t, single, d.Merge(single))
}

func TestTitleSimilarity(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "same title", "same title", 1},
		{"both empty", "", "", 1},
		{"one empty", "abcd", "", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, titleSimilarity(tc.a, tc.b), 1e-9)
		})
	}

	t.Run("symmetric", func(t *testing.T) {
		a, b := "graph neural networks", "graph neural nets"
		assert.Equal(t, titleSimilarity(a, b), titleSimilarity(b, a))
	})
}
