// Package providers defines the provider contract and shared plumbing for
// academic-metadata source clients.
//
// Each external bibliographic database (OpenAlex, Crossref, arXiv, ...)
// implements the Provider interface, allowing the search service to fan out
// to every configured source concurrently through a single contract. A
// provider is an independent failure domain: its errors and timeouts never
// affect another provider's call.
//
// Example usage:
//
//	client := openalex.New(cfg)
//	params := providers.SearchParams{Query: "climate change agriculture"}
//	result, err := client.Search(ctx, params)
package providers

import "context"

// SearchParams defines the parameters for searching one provider. All
// fields except Query are optional.
type SearchParams struct {
	// Query is the search query string (required).
	Query string

	// Page is the 1-indexed result page requested from the provider.
	Page int

	// PerPage is the number of results requested per page. Providers may
	// cap this with their own maximum.
	PerPage int

	// YearMin filters articles published in or after this year.
	// 0 applies no lower bound.
	YearMin int

	// YearMax filters articles published in or before this year.
	// 0 applies no upper bound.
	YearMax int

	// OpenAccessOnly asks the provider for open-access articles only.
	// Providers that cannot filter natively return unfiltered results;
	// the core re-applies the filter after merging.
	OpenAccessOnly bool
}

// RawAuthor is a pre-normalization author record. Providers fill whichever
// name fields their wire format carries; the normalizer collapses them to
// one display string.
type RawAuthor struct {
	// Name is a full display name, when the provider supplies one.
	Name string

	// Given and Family are split name parts, for providers that return
	// them separately.
	Given  string
	Family string

	// Affiliation is the author's institution, when known.
	Affiliation string
}

// RawArticle is one provider record before cross-provider normalization.
// Field shapes are heterogeneous on purpose: each client maps its wire
// format here as directly as possible and the normalizer canonicalizes.
type RawArticle struct {
	// ID is the provider-native identifier.
	ID string

	// Title is the article title. Records without a title are rejected
	// during normalization.
	Title string

	// Authors is the ordered raw author list.
	Authors []RawAuthor

	// Abstract is the literal abstract text, when the provider returns
	// one as text.
	Abstract string

	// AbstractInvertedIndex is the word-to-positions representation used
	// by OpenAlex instead of literal text. The normalizer reconstructs
	// the abstract from it when Abstract is empty.
	AbstractInvertedIndex map[string][]int

	// Year is the publication year; 0 means unknown.
	Year int

	// Source is the human-readable provider name that produced this
	// record.
	Source string

	// DOI is the DOI as returned by the provider, prefix and casing
	// untouched.
	DOI string

	// URL is the canonical landing URL.
	URL string

	// IsOpenAccess reports whether the provider flagged the article as
	// openly accessible.
	IsOpenAccess bool

	// OpenAccessURL points at the free full text, when the provider
	// knows one.
	OpenAccessURL string

	// CitedByCount is the provider's citation count for the article.
	CitedByCount int
}

// SearchResult contains the raw results from one provider search call. It
// is owned transiently by the orchestrator for the duration of one search.
type SearchResult struct {
	// Articles contains the raw records returned by the provider. May be
	// empty when nothing matched.
	Articles []RawArticle

	// TotalResults is the provider's estimate of the total number of
	// matches regardless of pagination. May be approximate.
	TotalResults int
}

// Provider is the capability interface every source client implements.
// Providers are resolved from configuration at startup into a fixed,
// ordered list; there is no runtime discovery.
type Provider interface {
	// Search queries the provider for articles matching the parameters.
	// Implementations must respect context cancellation and deadlines,
	// apply their own rate limiting, and map wire records to RawArticle.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// Name returns the human-readable provider name used for result
	// attribution, status records, logging, and metrics.
	Name() string

	// IsEnabled reports whether the provider participates in searches.
	// A provider may be disabled by configuration or a missing API key.
	IsEnabled() bool
}
