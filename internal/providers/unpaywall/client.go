// Package unpaywall implements the open-access lookup contract against the
// Unpaywall API. Unpaywall is keyed by DOI and requires only a contact
// email for its polite pool.
package unpaywall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/itsbakr/minerva-library/internal/domain"
	"github.com/itsbakr/minerva-library/internal/providers"
)

const (
	// DefaultBaseURL is the default Unpaywall API base URL.
	DefaultBaseURL = "https://api.unpaywall.org/v2"

	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default per-lookup timeout. Lookups are
	// cheap; a short budget keeps enrichment from stalling a search.
	DefaultTimeout = 10 * time.Second

	// sourceName is the human-readable name for this provider.
	sourceName = "Unpaywall"
)

// Config holds configuration for the Unpaywall client.
type Config struct {
	// BaseURL is the Unpaywall API base URL.
	BaseURL string

	// Email is the contact email, required by the Unpaywall API.
	Email string

	// Timeout is the per-lookup timeout. Defaults to 10 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second. Defaults to 10.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed. Defaults to 10.
	BurstSize int

	// Enabled indicates whether enrichment runs at all.
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

// Client looks up open-access availability by DOI via Unpaywall.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

// New creates a new Unpaywall client with the given configuration.
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

// NewWithHTTPClient creates a new Unpaywall client with a custom HTTP
// client. This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Lookup fetches open-access availability for one normalized DOI.
// A DOI unknown to Unpaywall returns domain.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, doi string) (*providers.OpenAccessInfo, error) {
	if doi == "" {
		return nil, domain.NewValidationError("doi", "must not be empty")
	}

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	// Unpaywall expects the DOI as-is in the path.
	baseURL.Path = baseURL.Path + "/" + doi

	query := url.Values{}
	query.Set("email", c.config.Email)
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError("doi", doi)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	var lookupResp Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&lookupResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	info := &providers.OpenAccessInfo{
		IsOpenAccess: lookupResp.IsOA,
	}
	if loc := lookupResp.BestOALocation; loc != nil {
		// PDF link preferred over the landing page.
		if loc.URLForPDF != "" {
			info.OpenAccessURL = loc.URLForPDF
		} else {
			info.OpenAccessURL = loc.URL
		}
	}

	return info, nil
}

// Name returns the human-readable name for this provider.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether enrichment is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}
