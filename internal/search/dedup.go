package search

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/itsbakr/minerva-library/internal/domain"
)

// DefaultTitleSimilarityThreshold is the normalized edit-distance ratio at
// or above which two articles without a shared DOI are treated as the same
// work.
const DefaultTitleSimilarityThreshold = 0.92

// Deduplicator collapses articles describing the same work into one merged
// record. Two articles match when their normalized DOIs are equal, or when
// neither side settles the question by DOI and their normalized titles are
// similar at or above the threshold.
//
// Matching is not transitive pairwise: A may match B and B match C without
// A matching C directly. Clustering therefore runs over a union-find
// structure so the whole chain collapses into a single group.
type Deduplicator struct {
	threshold float64
	logger    zerolog.Logger
}

// NewDeduplicator creates a Deduplicator. A non-positive threshold falls
// back to DefaultTitleSimilarityThreshold.
func NewDeduplicator(threshold float64, logger zerolog.Logger) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultTitleSimilarityThreshold
	}
	return &Deduplicator{
		threshold: threshold,
		logger:    logger.With().Str("component", "dedup").Logger(),
	}
}

// Merge collapses duplicates and returns one merged article per group.
// Input order is the provider configuration order, and output groups are
// ordered by their first-seen member, so the whole pass is deterministic.
func (d *Deduplicator) Merge(articles []domain.Article) []domain.Article {
	if len(articles) <= 1 {
		return articles
	}

	keys := make([]matchKey, len(articles))
	for i, a := range articles {
		keys[i] = newMatchKey(a)
	}

	uf := newUnionFind(len(articles))
	for i := 0; i < len(articles); i++ {
		for j := i + 1; j < len(articles); j++ {
			if keys[i].matches(keys[j], d.threshold) {
				uf.union(i, j)
			}
		}
	}

	// Group members keep their input order, and groups appear in the
	// order of their first member.
	groups := make(map[int][]int)
	var order []int
	for i := range articles {
		root := uf.find(i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], i)
	}

	merged := make([]domain.Article, 0, len(order))
	for _, root := range order {
		members := make([]domain.Article, 0, len(groups[root]))
		for _, idx := range groups[root] {
			members = append(members, articles[idx])
		}
		merged = append(merged, d.mergeGroup(members))
	}
	return merged
}

// matchKey holds an article's precomputed comparison fields.
type matchKey struct {
	doi   string
	title string
}

func newMatchKey(a domain.Article) matchKey {
	return matchKey{
		doi:   domain.NormalizeDOI(a.DOI),
		title: normalizeTitle(a.Title),
	}
}

// matches applies the pairwise equality rule: equal non-empty DOIs, or,
// when DOI cannot settle it, title similarity at or above the threshold.
// Two distinct non-empty DOIs never match, regardless of titles.
func (k matchKey) matches(other matchKey, threshold float64) bool {
	if k.doi != "" && other.doi != "" {
		return k.doi == other.doi
	}
	if k.title == "" || other.title == "" {
		return false
	}
	return titleSimilarity(k.title, other.title) >= threshold
}

// normalizeTitle lowercases and collapses whitespace for comparison.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// titleSimilarity is a normalized edit-distance ratio in [0,1]: 1 for
// identical strings, 0 for maximally different. It is symmetric.
func titleSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// mergeGroup folds a duplicate group into one article. Members arrive in
// first-seen order, which makes every first-non-null rule a stable
// tie-break toward the provider queried first.
func (d *Deduplicator) mergeGroup(members []domain.Article) domain.Article {
	out := members[0]
	out.Sources = nil

	seenSources := make(map[string]bool)
	seenAuthors := make(map[string]bool)
	var authors []domain.Author

	for _, m := range members {
		for _, src := range m.Sources {
			if !seenSources[src] {
				seenSources[src] = true
				out.Sources = append(out.Sources, src)
			}
		}

		for _, a := range m.Authors {
			key := NormalizeAuthorName(a.Name)
			if key == "" || seenAuthors[key] {
				continue
			}
			seenAuthors[key] = true
			authors = append(authors, a)
		}

		if out.DOI == "" {
			out.DOI = m.DOI
		} else if m.DOI != "" && domain.NormalizeDOI(m.DOI) != domain.NormalizeDOI(out.DOI) {
			// Conflicting DOIs inside one group should not happen under
			// the matching rule; keep the first and flag the anomaly.
			d.logger.Warn().
				Str("kept_doi", out.DOI).
				Str("conflicting_doi", m.DOI).
				Str("title", out.Title).
				Msg("conflicting DOIs in duplicate group, keeping first")
		}

		if len(m.Abstract) > len(out.Abstract) {
			out.Abstract = m.Abstract
		}
		if m.CitedByCount > out.CitedByCount {
			out.CitedByCount = m.CitedByCount
		}
		if m.IsOpenAccess {
			out.IsOpenAccess = true
		}
		if out.OpenAccessURL == "" {
			out.OpenAccessURL = m.OpenAccessURL
		}
		if out.Title == "" {
			out.Title = m.Title
		}
		if out.Year == 0 {
			out.Year = m.Year
		}
		if out.URL == "" {
			out.URL = m.URL
		}
	}

	out.Authors = authors
	return out
}

// unionFind is a disjoint-set structure with path compression and union by
// rank, used to take the transitive closure of the pairwise match graph.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}
