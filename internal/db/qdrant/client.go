// Package qdrant is a writer for the Qdrant vector index over its REST API.
package qdrant

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

	"github.com/kailas-cloud/vecingest/internal/domain"
)

// maxErrorBody bounds how much of an error response is kept for diagnostics.
const maxErrorBody = 2048

// Config holds the index connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // collection management calls only; upserts are unbounded
	Logger  *zap.Logger
}

// Client writes points to a Qdrant instance.
type Client struct {
	baseURL string
	apiKey  string
	mgmt    *http.Client // bounded, for listing/creating collections
	write   *http.Client // unbounded, a wait=true upsert blocks as long as the store needs
	logger  *zap.Logger
}

// New creates a Qdrant client.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		mgmt:    &http.Client{Timeout: cfg.Timeout},
		write:   &http.Client{},
		logger:  logger,
	}
}

// EnsureCollection creates the collection if it does not exist. Listing
// failures are tolerated: the client logs a warning and attempts creation
// anyway, so a transiently unreachable listing endpoint never blocks a run.
// A create that reports "already exists" counts as success. An existing
// collection is never altered, even when its dimensionality or metric
// differ from the arguments.
func (c *Client) EnsureCollection(ctx context.Context, name string, vectorSize int, distance domain.Distance) error {
	exists, err := c.collectionExists(ctx, name)
	if err != nil {
		c.logger.Warn("Unable to list collections", zap.Error(err))
	} else if exists {
		return nil
	}

	c.logger.Info("Creating collection",
		zap.String("collection", name),
		zap.Int("vector_size", vectorSize),
		zap.String("distance", string(distance)),
	)

	body := createCollectionRequest{Vectors: vectorParams{Size: vectorSize, Distance: string(distance)}}
	status, raw, err := c.send(ctx, c.mgmt, http.MethodPut, "/collections/"+name, body)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	if status == http.StatusConflict {
		// Lost the listing race; the collection is there, which is all we need.
		c.logger.Warn("Collection already exists", zap.String("collection", name))
		return nil
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("create collection %s: status %d: %s", name, status, raw)
	}
	return nil
}

// UpsertBatch writes the full batch in one acknowledged call. Empty input
// is a no-op. The write either fully succeeds or fully fails; there is no
// partial-batch reporting.
func (c *Client) UpsertBatch(ctx context.Context, collection string, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}

	path := "/collections/" + collection + "/points?wait=true"
	status, raw, err := c.send(ctx, c.write, http.MethodPut, path, upsertRequest{Points: toPointStructs(points)})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("upsert %d points: status %d: %s", len(points), status, raw)
	}
	return nil
}

func (c *Client) collectionExists(ctx context.Context, name string) (bool, error) {
	status, raw, err := c.send(ctx, c.mgmt, http.MethodGet, "/collections", nil)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("list collections: status %d: %s", status, raw)
	}

	var decoded collectionsResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return false, fmt.Errorf("decode collections: %w", err)
	}
	for _, col := range decoded.Result.Collections {
		if col.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// send issues one JSON request and returns the status plus the body,
// truncated for error statuses.
func (c *Client) send(ctx context.Context, client *http.Client, method, path string, in any) (int, []byte, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var raw []byte
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		raw, err = io.ReadAll(resp.Body)
	} else {
		raw, err = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	}
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}
