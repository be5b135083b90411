// Package search implements the search aggregation core: concurrent
// provider orchestration, record normalization, dedup/merge, open-access
// enrichment, and relevance ranking, all scoped to a single search call.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/itsbakr/minerva-library/internal/domain"
	"github.com/itsbakr/minerva-library/internal/providers"
)

// NormalizeArticle canonicalizes one raw provider record into an Article.
// It is a pure function: DOI casing and prefixes are normalized, inverted-
// index abstracts are reconstructed, and author name parts are collapsed
// to one display string. Optional fields may be missing; only a missing
// title rejects the record.
func NormalizeArticle(raw providers.RawArticle) (domain.Article, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return domain.Article{}, domain.NewNormalizationError(raw.Source, "missing title")
	}

	doi := domain.NormalizeDOI(raw.DOI)

	id := strings.TrimSpace(raw.ID)
	if id == "" && doi != "" {
		id = "doi:" + doi
	}

	abstract := strings.TrimSpace(raw.Abstract)
	if abstract == "" {
		abstract = ReconstructAbstract(raw.AbstractInvertedIndex)
	}

	authors := make([]domain.Author, 0, len(raw.Authors))
	for _, a := range raw.Authors {
		name := authorDisplayName(a)
		if name == "" {
			continue
		}
		authors = append(authors, domain.Author{
			Name:        name,
			Affiliation: strings.TrimSpace(a.Affiliation),
		})
	}

	citedBy := raw.CitedByCount
	if citedBy < 0 {
		citedBy = 0
	}

	return domain.Article{
		ID:            id,
		Title:         title,
		Authors:       authors,
		Abstract:      abstract,
		Year:          raw.Year,
		Sources:       []string{raw.Source},
		DOI:           doi,
		URL:           strings.TrimSpace(raw.URL),
		IsOpenAccess:  raw.IsOpenAccess,
		OpenAccessURL: strings.TrimSpace(raw.OpenAccessURL),
		CitedByCount:  citedBy,
	}, nil
}

// authorDisplayName collapses raw author name parts to one display string.
func authorDisplayName(a providers.RawAuthor) string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
}

// ReconstructAbstract rebuilds abstract text from an inverted-index
// representation (word to positions), as used by OpenAlex. Each word is
// placed at its recorded positions and the result joined with single
// spaces; the positions define the total length.
func ReconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	const maxAbstractWords = 100_000
	totalPairs := 0
	for _, positions := range invertedIndex {
		totalPairs += len(positions)
	}
	// Guard against malicious payloads with excessive position entries.
	if totalPairs > maxAbstractWords {
		return ""
	}
	pairs := make([]posWord, 0, totalPairs)

	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	var builder strings.Builder
	builder.Grow(totalPairs * 7)
	for i, pair := range pairs {
		if i > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(pair.word)
	}

	return builder.String()
}

// NormalizeAuthorName normalizes an author name for dedup comparison:
// lower-cased, "Last, First" reordered to "First Last", non-letter
// characters dropped, whitespace collapsed.
func NormalizeAuthorName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = strings.ToLower(name)

	if idx := strings.Index(name, ","); idx >= 0 {
		last := strings.TrimSpace(name[:idx])
		first := strings.TrimSpace(name[idx+1:])
		if first != "" {
			name = first + " " + last
		} else {
			name = last
		}
	}

	var sb strings.Builder
	sb.Grow(len(name))
	prevSpace := false

	for _, r := range name {
		if unicode.IsLetter(r) {
			sb.WriteRune(r)
			prevSpace = false
		} else if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteRune(' ')
				prevSpace = true
			}
		}
		// Apostrophes, periods, hyphens are dropped.
	}

	return strings.TrimRight(sb.String(), " ")
}
