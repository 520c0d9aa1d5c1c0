package wds

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/openknowledge-labs/docharvest/internal/docsource"
	"github.com/openknowledge-labs/docharvest/internal/domain"
)

const (
	// DefaultBaseURL is the default WDS search API base URL.
	DefaultBaseURL = "https://search.worldbank.org/api/v3/wds"

	// DefaultRateLimit is the default request rate per second. The API
	// publishes no hard limit; one request every couple of seconds keeps
	// bulk harvesting polite.
	DefaultRateLimit = 0.5

	// DefaultTimeout is the default request timeout. Large pages can take
	// a while to assemble server-side.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxAttempts is the default transport retry budget per page.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the default fixed backoff between attempts.
	DefaultRetryDelay = 2 * time.Second

	// DefaultFields is the default per-document field list requested from
	// the API.
	DefaultFields = "display_title,abstracts,lang,count,admreg,docty,disclosure_date,keywd,theme,subtopic,historic_topic,pdfurl"

	// responseSnippetBytes bounds how much of an error response body is
	// carried into error messages.
	responseSnippetBytes = 1 << 10
)

// Config holds configuration for the WDS client.
type Config struct {
	// BaseURL is the search API base URL.
	// Defaults to https://search.worldbank.org/api/v3/wds
	BaseURL string

	// Language restricts results to documents in this language
	// (lang_exact parameter). Empty applies no language filter.
	Language string

	// Fields is the comma-separated per-document field list (fl
	// parameter). Defaults to DefaultFields.
	Fields string

	// StartDate is the lower disclosure-date bound (strdate, YYYY-MM-DD).
	StartDate string

	// EndDate is the upper disclosure-date bound (enddate, YYYY-MM-DD).
	EndDate string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// MaxAttempts is the transport retry budget per page fetch.
	MaxAttempts int

	// RetryDelay is the fixed backoff between attempts.
	RetryDelay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// OnRetry, if set, observes transport retries. Used for metrics.
	OnRetry func(err error)
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Fields == "" {
		c.Fields = DefaultFields
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
}

// Client fetches result pages from the WDS search API. It is stateless
// between calls apart from its rate limiter.
type Client struct {
	config     Config
	httpClient *docsource.HTTPClient
}

// New creates a new WDS client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := docsource.NewHTTPClient(docsource.HTTPClientConfig{
		Timeout:     cfg.Timeout,
		RateLimit:   cfg.RateLimit,
		BurstSize:   1,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		UserAgent:   cfg.UserAgent,
		OnRetry:     cfg.OnRetry,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new WDS client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *docsource.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// FetchPage fetches one result page for query at the given offset.
//
// Transport-level failures are retried inside the HTTP client up to the
// attempt budget; exhausting it yields a domain.TransportExhaustedError,
// which is fatal to the current harvest of that query. A non-2xx status
// or an undecodable body yields a domain.ResponseError immediately, with
// no retry.
func (c *Client) FetchPage(ctx context.Context, query string, offset, pageSize int) (*Page, error) {
	if offset < 0 {
		return nil, domain.NewValidationError("offset", "must be non-negative")
	}
	if pageSize <= 0 {
		return nil, domain.NewValidationError("page_size", "must be positive")
	}

	status, body, err := c.httpClient.Get(ctx, c.searchURL(query, offset, pageSize))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, domain.NewTransportExhaustedError(query, offset, c.httpClient.MaxAttempts(), err)
	}

	if status != http.StatusOK {
		return nil, domain.NewResponseError(query, status, snippet(body))
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.NewResponseError(query, status, "undecodable body: "+snippet(body))
	}

	page := &Page{
		Documents: make(map[string]RawDocument, len(resp.Documents)),
		Total:     int(resp.Total),
		Offset:    offset,
	}
	if resp.OS > 0 {
		page.Offset = int(resp.OS)
	}

	// Pull every entry out of the documents object except the facets
	// summary, which is metadata rather than a document.
	for id, raw := range resp.Documents {
		if id == facetsKey {
			continue
		}
		var doc RawDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, domain.NewResponseError(query, status, "undecodable document "+id)
		}
		page.Documents[id] = doc
	}

	return page, nil
}

// searchURL builds the request URL for one page.
func (c *Client) searchURL(query string, offset, pageSize int) string {
	params := url.Values{}
	params.Set("qterm", query)
	params.Set("format", "json")
	params.Set("rows", strconv.Itoa(pageSize))
	params.Set("os", strconv.Itoa(offset))
	params.Set("fl", c.config.Fields)
	if c.config.Language != "" {
		params.Set("lang_exact", c.config.Language)
	}
	if c.config.StartDate != "" {
		params.Set("strdate", c.config.StartDate)
	}
	if c.config.EndDate != "" {
		params.Set("enddate", c.config.EndDate)
	}
	return c.config.BaseURL + "?" + params.Encode()
}

// snippet trims an error response body for inclusion in error messages.
func snippet(body []byte) string {
	if len(body) > responseSnippetBytes {
		body = body[:responseSnippetBytes]
	}
	return string(body)
}
