// Package encode is the client for the text embedding service: one
// POST /encode request per text, bounded by a timeout.
package encode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/vecingest/internal/domain"
	"github.com/kailas-cloud/vecingest/internal/metrics"
)

const providerName = "encode"

// maxErrorBody bounds how much of an error response is read for logging.
const maxErrorBody = 2048

// Config holds the embedding service client settings.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RateLimitRPS float64 // 0 = unlimited
	Metrics      *metrics.Ingest
	Logger       *zap.Logger
}

// Client calls the embedding service. Every failure mode — non-2xx status,
// transport error, missing embedding field — is logged here and surfaces as
// an error the caller counts as a per-record failure.
type Client struct {
	endpoint string
	statusEP string
	client   *http.Client
	limiter  *rate.Limiter
	metrics  *metrics.Ingest
	logger   *zap.Logger
}

// New creates an embedding service client.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint: base + "/encode",
		statusEP: base + "/status",
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  limiter,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

type encodeRequest struct {
	Text string `json:"text"`
}

type encodeResponse struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Embed implements domain.Embedder.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(encodeRequest{Text: text})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.observe("error", start)
		c.logger.Error("Error calling embedding API", zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embedding request: %w: %w", err, domain.ErrEmbeddingProviderError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.observe("error", start)
		c.logger.Error("Embedding API returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embedding API status %d: %w",
			resp.StatusCode, domain.ErrEmbeddingProviderError)
	}

	var decoded encodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.observe("error", start)
		c.logger.Error("Failed to decode embedding API response", zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("decode embedding response: %w: %w",
			err, domain.ErrEmbeddingProviderError)
	}
	if len(decoded.Embedding) == 0 {
		c.observe("error", start)
		c.logger.Error("Embedding API response missing embedding field")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding in response: %w",
			domain.ErrEmbeddingProviderError)
	}

	c.observe("success", start)
	return domain.EmbeddingResult{Embedding: decoded.Embedding}, nil
}

// HealthCheck probes the service's /status endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusEP, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("status request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) observe(status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.EmbedRequests.WithLabelValues(providerName, status).Inc()
	if status == "success" {
		c.metrics.EmbedDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	}
}
