package search

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/itsbakr/minerva-library/internal/domain"
)

// Ranking weights. Each signal is normalized to a bounded range before
// weighting, so the score stays comparable across result sets.
const (
	weightPhraseTitle    = 3.0
	weightPhraseAbstract = 1.5
	weightTermCoverage   = 2.0
	weightOpenAccess     = 0.5
	weightCitations      = 0.4
	weightRecency        = 1.0

	// recencyHalfScale is the e-folding age in years for the recency
	// signal: an article this old contributes 1/e of the full weight.
	recencyHalfScale = 10.0
)

// Ranker scores merged articles against the query and orders them.
type Ranker struct {
	now func() time.Time
}

// NewRanker creates a Ranker using the wall clock for recency.
func NewRanker() *Ranker {
	return &Ranker{now: time.Now}
}

// Rank assigns a relevance score to every article and sorts the slice in
// place: descending score, then descending citation count, then ascending
// title. The ordering is total, so equal inputs always produce equal
// output order.
func (r *Ranker) Rank(query string, articles []domain.Article) {
	q := strings.ToLower(strings.TrimSpace(query))
	terms := queryTerms(q)
	currentYear := r.now().Year()

	for i := range articles {
		articles[i].RelevanceScore = score(q, terms, currentYear, articles[i])
	}

	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if a.CitedByCount != b.CitedByCount {
			return a.CitedByCount > b.CitedByCount
		}
		return a.Title < b.Title
	})
}

// score computes the weighted sum of the relevance signals. Every signal
// contributes a bounded non-negative amount.
func score(query string, terms []string, currentYear int, a domain.Article) float64 {
	title := strings.ToLower(a.Title)
	abstract := strings.ToLower(a.Abstract)

	var s float64

	if query != "" {
		if strings.Contains(title, query) {
			s += weightPhraseTitle
		}
		if strings.Contains(abstract, query) {
			s += weightPhraseAbstract
		}
	}

	s += termCoverage(terms, title, abstract) * weightTermCoverage

	if a.IsOpenAccess {
		s += weightOpenAccess
	}

	if a.CitedByCount > 0 {
		s += math.Log1p(float64(a.CitedByCount)) * weightCitations
	}

	if a.Year > 0 {
		age := float64(currentYear - a.Year)
		if age < 0 {
			age = 0
		}
		s += math.Exp(-age/recencyHalfScale) * weightRecency
	}

	return s
}

// termCoverage is the fraction of query terms found in the title or
// abstract, in [0,1].
func termCoverage(terms []string, title, abstract string) float64 {
	if len(terms) == 0 {
		return 0
	}
	found := 0
	for _, t := range terms {
		if strings.Contains(title, t) || strings.Contains(abstract, t) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

// queryTerms splits a lowercased query into distinct terms.
func queryTerms(query string) []string {
	fields := strings.Fields(query)
	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			terms = append(terms, f)
		}
	}
	return terms
}
