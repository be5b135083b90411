// Package crossref implements the providers.Provider interface for the
// Crossref works API.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/itsbakr/minerva-library/internal/domain"
	"github.com/itsbakr/minerva-library/internal/providers"
)

const (
	// DefaultBaseURL is the default Crossref API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPerPage is the default page size.
	DefaultPerPage = 20

	// maxPerPage is the Crossref API rows limit.
	maxPerPage = 1000

	// sourceName is the human-readable name for this provider.
	sourceName = "Crossref"
)

// htmlTagRegex strips JATS/HTML markup from Crossref abstracts.
var htmlTagRegex = regexp.MustCompile(`<[^>]+>`)

// Config holds configuration for the Crossref client.
type Config struct {
	// BaseURL is the Crossref API base URL. Defaults to
	// https://api.crossref.org
	BaseURL string

	// Email is the contact email for the polite pool, sent as the
	// mailto parameter.
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

// Client implements the providers.Provider interface for Crossref.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

// Ensure Client implements the Provider interface.
var _ providers.Provider = (*Client)(nil)

// New creates a new Crossref client with the given configuration.
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

// NewWithHTTPClient creates a new Crossref client with a custom HTTP
// client. This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries Crossref for works matching the given parameters.
// Crossref has no native open-access filter; OpenAccessOnly is left to the
// core's post-merge filtering.
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

	articles := make([]providers.RawArticle, 0, len(searchResp.Message.Items))
	for i := range searchResp.Message.Items {
		articles = append(articles, workToRaw(&searchResp.Message.Items[i]))
	}

	return &providers.SearchResult{
		Articles:     articles,
		TotalResults: searchResp.Message.TotalResults,
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
// Crossref uses offset-based pagination.
func (c *Client) buildSearchURL(params providers.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = "/works"

	perPage := params.PerPage
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	offset := 0
	if params.Page > 1 {
		offset = (params.Page - 1) * perPage
	}

	query := url.Values{}
	query.Set("query", params.Query)
	query.Set("rows", strconv.Itoa(perPage))
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var filters []string
	if params.YearMin > 0 {
		filters = append(filters, fmt.Sprintf("from-pub-date:%d", params.YearMin))
	}
	if params.YearMax > 0 {
		filters = append(filters, fmt.Sprintf("until-pub-date:%d", params.YearMax))
	}
	if len(filters) > 0 {
		query.Set("filter", strings.Join(filters, ","))
	}

	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// workToRaw converts a Crossref work to a raw article record.
func workToRaw(work *Work) providers.RawArticle {
	authors := make([]providers.RawAuthor, 0, len(work.Author))
	for _, author := range work.Author {
		raw := providers.RawAuthor{
			Given:  author.Given,
			Family: author.Family,
		}
		if len(author.Affiliation) > 0 {
			raw.Affiliation = author.Affiliation[0].Name
		}
		authors = append(authors, raw)
	}

	var title string
	if len(work.Title) > 0 {
		title = work.Title[0]
	}

	// Year from the first available date: print, then online, then the
	// record creation date.
	year := work.PublishedPrint.Year()
	if year == 0 {
		year = work.PublishedOnline.Year()
	}
	if year == 0 {
		year = work.Created.Year()
	}

	articleURL := work.URL
	if articleURL == "" && work.DOI != "" {
		articleURL = "https://doi.org/" + work.DOI
	}

	return providers.RawArticle{
		ID:           work.DOI,
		Title:        title,
		Authors:      authors,
		Abstract:     cleanAbstract(work.Abstract),
		Year:         year,
		Source:       sourceName,
		DOI:          work.DOI,
		URL:          articleURL,
		CitedByCount: work.ReferencedBy,
	}
}

// cleanAbstract strips JATS/HTML tags and collapses whitespace. Crossref
// abstracts arrive as XML fragments like <jats:p>...</jats:p>.
func cleanAbstract(abstract string) string {
	if abstract == "" {
		return ""
	}
	clean := htmlTagRegex.ReplaceAllString(abstract, "")
	return strings.Join(strings.Fields(clean), " ")
}
