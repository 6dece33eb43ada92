package ingest

import (
	"context"

	"github.com/kailas-cloud/vecingest/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Writer manages the target collection and writes point batches.
type Writer interface {
	EnsureCollection(ctx context.Context, name string, vectorSize int, distance domain.Distance) error
	UpsertBatch(ctx context.Context, collection string, points []domain.Point) error
}

// EmbedderFactory opens a fresh embedding session. Each partition gets its
// own session for its whole lifetime; per-record clients are disallowed for
// throughput reasons.
type EmbedderFactory func() Embedder

// WriterFactory opens a fresh index connection, one per partition.
type WriterFactory func() Writer
