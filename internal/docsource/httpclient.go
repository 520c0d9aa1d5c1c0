package docsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps response bodies to prevent resource exhaustion.
const maxBodyBytes = 64 << 20

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxAttempts is the total attempt budget for transport-level
	// failures (connection errors, truncated bodies). Non-2xx responses
	// and undecodable bodies are returned to the caller without retry;
	// they indicate a malformed request, not transient flakiness.
	MaxAttempts int

	// RetryDelay is the fixed backoff between attempts.
	RetryDelay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key for authentication.
	APIKey string

	// APIKeyHeader is the header name for the API key (e.g.
	// "X-API-Key", "Authorization").
	APIKeyHeader string

	// OnRetry, if set, is invoked before each retry with the transport
	// error that triggered it. Used for retry metrics.
	OnRetry func(err error)
}

// HTTPClient wraps http.Client with rate limiting and transport-level
// retries. It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

// NewHTTPClient creates a new HTTP client with rate limiting.
// The client applies rate limiting before each attempt and retries only
// transport-level failures, reading the full response body inside the
// retry loop so that a truncated body counts as a retryable failure.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	// Apply defaults
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 1
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "docharvest/1.0"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
	}
}

// Get fetches url and returns the status code and the full response body.
// Transport failures (request errors, truncated bodies) are retried up to
// the attempt budget with a fixed backoff; after exhausting it, the last
// transport error is returned. A response with any status code, 2xx or
// not, is returned to the caller without retry.
func (c *HTTPClient) Get(ctx context.Context, url string) (int, []byte, error) {
	return c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

// PostJSON sends payload as a JSON body to url and returns the status code
// and the full response body, with the same retry semantics as Get.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding request body: %w", err)
	}

	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// do runs the attempt loop. newReq builds a fresh request per attempt so
// that request bodies do not need to be rewound across retries.
func (c *HTTPClient) do(ctx context.Context, newReq func() (*http.Request, error)) (int, []byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			if c.config.OnRetry != nil {
				c.config.OnRetry(lastErr)
			}
			if err := c.waitForRetry(ctx); err != nil {
				return 0, nil, err
			}
		}

		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := newReq()
		if err != nil {
			return 0, nil, fmt.Errorf("creating request: %w", err)
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.config.UserAgent)
		}
		if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
			req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// Check for context cancellation
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return 0, nil, err
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		// Read the whole body inside the attempt so a connection dropped
		// mid-transfer is treated as a retryable transport failure.
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		closeErr := resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response body: %w", err)
			continue
		}
		if closeErr != nil {
			lastErr = fmt.Errorf("closing response body: %w", closeErr)
			continue
		}

		return resp.StatusCode, body, nil
	}

	return 0, nil, lastErr
}

// waitForRetry waits for the configured backoff, respecting context
// cancellation.
func (c *HTTPClient) waitForRetry(ctx context.Context) error {
	timer := time.NewTimer(c.config.RetryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MaxAttempts returns the configured attempt budget.
func (c *HTTPClient) MaxAttempts() int {
	return c.config.MaxAttempts
}
