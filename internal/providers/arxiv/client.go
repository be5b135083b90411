// Package arxiv implements the providers.Provider interface for the arXiv
// Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
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
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the default rate limit (3 requests per second,
	// per arXiv API guidance).
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPerPage is the default page size.
	DefaultPerPage = 20

	// sourceName is the human-readable name for this provider.
	sourceName = "arXiv"
)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
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

// Client implements the providers.Provider interface for arXiv.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

// Ensure Client implements the Provider interface.
var _ providers.Provider = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := providers.NewHTTPClient(providers.HTTPClientConfig{
		Source:    sourceName,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "MinervaLibrary/1.0",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries arXiv for papers matching the given parameters. Every
// arXiv paper is openly accessible, so OpenAccessOnly needs no push-down.
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

	// Parse the Atom XML response (limit body to 10MB).
	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	articles := make([]providers.RawArticle, 0, len(feed.Entries))
	for i := range feed.Entries {
		articles = append(articles, entryToRaw(&feed.Entries[i]))
	}

	return &providers.SearchResult{
		Articles:     articles,
		TotalResults: feed.TotalResults,
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

// buildSearchURL constructs the arXiv search API URL. arXiv has no year
// filter in its query language short of submittedDate ranges, so year
// bounds are pushed down as a date range.
func (c *Client) buildSearchURL(params providers.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	searchQuery := "all:" + params.Query
	if dateFilter := buildDateFilter(params.YearMin, params.YearMax); dateFilter != "" {
		searchQuery = searchQuery + " AND " + dateFilter
	}

	perPage := params.PerPage
	if perPage == 0 {
		perPage = DefaultPerPage
	}

	query := url.Values{}
	query.Set("search_query", searchQuery)
	query.Set("max_results", strconv.Itoa(perPage))
	if params.Page > 1 {
		query.Set("start", strconv.Itoa((params.Page-1)*perPage))
	}
	query.Set("sortBy", "relevance")
	query.Set("sortOrder", "descending")

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// buildDateFilter constructs the arXiv submittedDate range for year bounds.
func buildDateFilter(yearMin, yearMax int) string {
	if yearMin == 0 && yearMax == 0 {
		return ""
	}

	fromStr := "*"
	if yearMin > 0 {
		fromStr = fmt.Sprintf("%d01010000", yearMin)
	}

	toStr := "*"
	if yearMax > 0 {
		toStr = fmt.Sprintf("%d12312359", yearMax)
	}

	return fmt.Sprintf("submittedDate:[%s TO %s]", fromStr, toStr)
}

// entryToRaw converts an arXiv Atom entry to a raw article record.
func entryToRaw(entry *Entry) providers.RawArticle {
	authors := make([]providers.RawAuthor, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		authors = append(authors, providers.RawAuthor{
			Name:        name,
			Affiliation: strings.TrimSpace(a.Affiliation),
		})
	}

	var year int
	if entry.Published != "" {
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			year = t.Year()
		}
	}

	// Prefer the PDF link; fall back to the abstract page.
	var pdfURL string
	articleURL := entry.ID
	for _, link := range entry.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			pdfURL = link.Href
		}
		if link.Rel == "alternate" && link.Href != "" {
			articleURL = link.Href
		}
	}

	// arXiv wraps titles and abstracts across lines.
	title := strings.Join(strings.Fields(entry.Title), " ")
	abstract := strings.Join(strings.Fields(entry.Summary), " ")

	return providers.RawArticle{
		ID:            entry.ID,
		Title:         title,
		Authors:       authors,
		Abstract:      abstract,
		Year:          year,
		Source:        sourceName,
		DOI:           entry.DOI,
		URL:           articleURL,
		IsOpenAccess:  true,
		OpenAccessURL: pdfURL,
	}
}
