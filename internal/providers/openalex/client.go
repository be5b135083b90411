// Package openalex implements the providers.Provider interface for the
// OpenAlex works API.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/itsbakr/minerva-library/internal/domain"
	"github.com/itsbakr/minerva-library/internal/providers"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default rate limit in requests per second.
	// The polite pool (with email) allows higher rates.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPerPage is the default page size.
	DefaultPerPage = 25

	// maxPerPage is the OpenAlex API per_page limit.
	maxPerPage = 200

	// sourceName is the human-readable name for this provider.
	sourceName = "OpenAlex"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	// Defaults to https://api.openalex.org
	BaseURL string

	// Email is the contact email for the polite pool. Providing one
	// grants access to higher rate limits.
	Email string

	// Timeout is the request timeout. Defaults to 30 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second. Defaults to 10.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed. Defaults to 10.
	BurstSize int

	// Enabled indicates whether this provider participates in searches.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client implements the providers.Provider interface for OpenAlex.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

// Ensure Client implements the Provider interface.
var _ providers.Provider = (*Client)(nil)

// New creates a new OpenAlex client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := providers.NewHTTPClient(providers.HTTPClientConfig{
		Source:    sourceName,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "MinervaLibrary/1.0 (mailto:" + cfg.Email + ")",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new OpenAlex client with a custom HTTP
// client. This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries OpenAlex for works matching the given parameters.
func (c *Client) Search(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	// Limit body to 10MB to prevent resource exhaustion.
	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	articles := make([]providers.RawArticle, 0, len(searchResp.Results))
	for i := range searchResp.Results {
		articles = append(articles, workToRaw(&searchResp.Results[i]))
	}

	return &providers.SearchResult{
		Articles:     articles,
		TotalResults: searchResp.Meta.Count,
	}, nil
}

// Name returns the human-readable name for this provider.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this provider is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the search API URL with query parameters.
func (c *Client) buildSearchURL(params providers.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = "/works"

	query := url.Values{}
	query.Set("search", params.Query)

	filters := buildFilters(params)
	if len(filters) > 0 {
		query.Set("filter", strings.Join(filters, ","))
	}

	perPage := params.PerPage
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	query.Set("per_page", strconv.Itoa(perPage))

	if params.Page > 1 {
		query.Set("page", strconv.Itoa(params.Page))
	}

	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// buildFilters constructs the filter query string components.
func buildFilters(params providers.SearchParams) []string {
	var filters []string

	switch {
	case params.YearMin > 0 && params.YearMax > 0:
		filters = append(filters, fmt.Sprintf("publication_year:%d-%d", params.YearMin, params.YearMax))
	case params.YearMin > 0:
		filters = append(filters, fmt.Sprintf("publication_year:>%d", params.YearMin-1))
	case params.YearMax > 0:
		filters = append(filters, fmt.Sprintf("publication_year:<%d", params.YearMax+1))
	}

	if params.OpenAccessOnly {
		filters = append(filters, "is_oa:true")
	}

	return filters
}

// workToRaw converts an OpenAlex work to a raw article record. DOI casing
// and prefixes are left as-is; the normalizer canonicalizes them.
func workToRaw(work *Work) providers.RawArticle {
	authors := make([]providers.RawAuthor, 0, len(work.Authorships))
	for _, authorship := range work.Authorships {
		author := providers.RawAuthor{
			Name: authorship.Author.DisplayName,
		}
		if len(authorship.Institutions) > 0 {
			author.Affiliation = authorship.Institutions[0].DisplayName
		}
		authors = append(authors, author)
	}

	// Prefer display_name as it is usually cleaner.
	title := work.DisplayName
	if title == "" {
		title = work.Title
	}

	var isOA bool
	var oaURL string
	if work.OpenAccess != nil {
		isOA = work.OpenAccess.IsOA
		oaURL = work.OpenAccess.OAURL
	}
	if oaURL == "" && work.PrimaryLocation != nil {
		oaURL = work.PrimaryLocation.PDFURL
	}

	// The DOI field doubles as the canonical landing URL when present.
	articleURL := work.DOI
	if articleURL == "" {
		articleURL = work.ID
	}

	return providers.RawArticle{
		ID:                    work.ID,
		Title:                 title,
		Authors:               authors,
		AbstractInvertedIndex: work.AbstractInvertedIndex,
		Year:                  work.PublicationYear,
		Source:                sourceName,
		DOI:                   work.DOI,
		URL:                   articleURL,
		IsOpenAccess:          isOA,
		OpenAccessURL:         oaURL,
		CitedByCount:          work.CitedByCount,
	}
}
