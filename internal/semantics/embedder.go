// Package semantics scores the semantic coherence of a text's sentences
// using sentence embeddings and pairwise cosine similarity.
package semantics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openknowledge-labs/docharvest/internal/docsource"
	"github.com/openknowledge-labs/docharvest/internal/domain"
)

// Embedder converts texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderConfig holds settings for the HTTP embedder.
type EmbedderConfig struct {
	// BaseURL is the OpenAI-compatible API base URL (".../v1").
	BaseURL string

	// APIKey authenticates requests.
	APIKey string

	// Model is the embedding model name.
	Model string

	// Timeout is the request timeout.
	Timeout time.Duration

	// MaxRetries is the transport retry budget.
	MaxRetries int

	// RetryDelay is the fixed backoff between attempts.
	RetryDelay time.Duration
}

// HTTPEmbedder calls an OpenAI-compatible embeddings endpoint.
type HTTPEmbedder struct {
	config     EmbedderConfig
	httpClient *docsource.HTTPClient
}

// Compile-time check that HTTPEmbedder implements Embedder.
var _ Embedder = (*HTTPEmbedder)(nil)

// NewHTTPEmbedder creates an HTTPEmbedder.
func NewHTTPEmbedder(cfg EmbedderConfig) *HTTPEmbedder {
	return &HTTPEmbedder{
		config: cfg,
		httpClient: docsource.NewHTTPClient(docsource.HTTPClientConfig{
			Timeout:      cfg.Timeout,
			RateLimit:    10,
			BurstSize:    10,
			MaxAttempts:  cfg.MaxRetries,
			RetryDelay:   cfg.RetryDelay,
			APIKey:       "Bearer " + cfg.APIKey,
			APIKeyHeader: "Authorization",
		}),
	}
}

// embedRequest is the embeddings API request body.
type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// embedResponse is the embeddings API response body.
type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed implements Embedder. The returned vectors are index-aligned with
// texts.
func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	url := e.config.BaseURL + "/embeddings"
	status, body, err := e.httpClient.PostJSON(ctx, url, embedRequest{
		Input: texts,
		Model: e.config.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if status != http.StatusOK {
		return nil, domain.NewResponseError("embeddings", status, string(body))
	}

	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors, want %d", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, fmt.Errorf("embedding response index %d out of range", item.Index)
		}
		out[item.Index] = item.Embedding
	}
	return out, nil
}
