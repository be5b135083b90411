// Package domain provides domain models and error taxonomy for the Minerva
// Library search service.
package domain

import "strings"

// Author represents an article author with an optional affiliation.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

// String returns a formatted string representation of the author.
func (a Author) String() string {
	if a.Affiliation == "" {
		return a.Name
	}
	return a.Name + " (" + a.Affiliation + ")"
}

// Article is the unit of a search result. Articles are normalized from
// heterogeneous provider records and may be merged across providers; after
// merging, Sources is never empty and DOI (when present) is unique within
// one result set.
type Article struct {
	// ID is the provider-native identifier, or a DOI-derived one.
	ID string `json:"id"`

	// Title is the only mandatory field; records without a title are
	// rejected during normalization.
	Title string `json:"title"`

	// Authors is the ordered author list, deduplicated by normalized
	// name after merging.
	Authors []Author `json:"authors"`

	// Abstract is the literal abstract text. Empty when the provider
	// supplied none.
	Abstract string `json:"abstract,omitempty"`

	// Year is the publication year; 0 means unknown.
	Year int `json:"publication_year,omitempty"`

	// Sources lists every provider that contributed to this article.
	Sources []string `json:"sources"`

	// DOI is the normalized DOI: scheme-stripped, trimmed, lower-case.
	// Empty when no DOI is known.
	DOI string `json:"doi,omitempty"`

	// URL is the canonical landing URL for the article.
	URL string `json:"url,omitempty"`

	// IsOpenAccess reports whether a free full-text version is known.
	IsOpenAccess bool `json:"is_open_access"`

	// OpenAccessURL points at the free full text when known.
	OpenAccessURL string `json:"open_access_url,omitempty"`

	// CitedByCount is the citation count, maximum across merged sources.
	CitedByCount int `json:"cited_by_count"`

	// RelevanceScore is assigned only by the ranker.
	RelevanceScore float64 `json:"relevance_score"`
}

// HasSource reports whether the given provider name already contributed
// to this article.
func (a *Article) HasSource(name string) bool {
	for _, s := range a.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// NormalizeDOI canonicalizes a DOI so that two DOIs denote the same
// identifier iff they are equal after this transform: surrounding
// whitespace trimmed, lower-cased, then URL and scheme prefixes stripped.
// Lower-casing first means prefix casing never matters.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	if doi == "" {
		return ""
	}
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "https://dx.doi.org/")
	doi = strings.TrimPrefix(doi, "http://dx.doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.TrimSpace(doi)
}
