package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecingest/internal/domain"
	"github.com/kailas-cloud/vecingest/internal/metrics"
)

const (
	failReasonBlankText  = "blank_text"
	failReasonEmbedError = "embed_error"
	failReasonBatchError = "batch_error"
)

// ProcessorConfig carries the dependencies for a single partition pass.
type ProcessorConfig struct {
	Embedder   Embedder
	Writer     Writer
	Collection string
	IDColumn   string
	TextColumn string
	BatchSize  int
	Metrics    *metrics.Ingest
	Logger     *zap.Logger
}

// Processor walks one partition strictly in order, buffering points and
// flushing whenever the buffer reaches the batch threshold. Record and batch
// failures are counted, never propagated.
type Processor struct {
	embedder   Embedder
	writer     Writer
	collection string
	idColumn   string
	textColumn string
	batchSize  int
	metrics    *metrics.Ingest
	logger     *zap.Logger

	buf       []domain.Point
	processed int
	failed    int
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		embedder:   cfg.Embedder,
		writer:     cfg.Writer,
		collection: cfg.Collection,
		idColumn:   cfg.IDColumn,
		textColumn: cfg.TextColumn,
		batchSize:  cfg.BatchSize,
		metrics:    cfg.Metrics,
		logger:     logger,
		buf:        make([]domain.Point, 0, cfg.BatchSize),
	}
}

// Run processes the given rows and returns the partition tally. A trailing
// partial batch is flushed before returning.
func (p *Processor) Run(ctx context.Context, rows []domain.Record) domain.PartitionResult {
	for _, row := range rows {
		p.processRecord(ctx, row)
		if len(p.buf) >= p.batchSize {
			p.flush(ctx)
		}
	}
	p.flush(ctx)

	return domain.PartitionResult{Processed: p.processed, Failed: p.failed}
}

func (p *Processor) processRecord(ctx context.Context, row domain.Record) {
	text := row.Text(p.textColumn)
	if text == "" {
		p.fail(failReasonBlankText, 1)
		return
	}

	id := row.ID(p.idColumn)
	if id == "" {
		id = uuid.NewString()
	}

	result, err := p.embedder.Embed(ctx, text)
	if err != nil {
		p.logger.Warn("Skipping record after embedding failure",
			zap.String("id", id),
			zap.Error(err))
		p.fail(failReasonEmbedError, 1)
		return
	}

	p.buf = append(p.buf, domain.Point{
		ID:      id,
		Vector:  result.Embedding,
		Payload: row.Payload(),
	})
}

// flush writes out the buffered points. The buffer is reset before the write
// so a failed batch is dropped rather than retried.
func (p *Processor) flush(ctx context.Context) {
	if len(p.buf) == 0 {
		return
	}

	batch := p.buf
	p.buf = make([]domain.Point, 0, p.batchSize)

	start := time.Now()
	err := p.writer.UpsertBatch(ctx, p.collection, batch)
	if p.metrics != nil {
		p.metrics.BatchesTotal.WithLabelValues(p.collection).Inc()
		p.metrics.BatchDuration.WithLabelValues(p.collection).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		p.logger.Error("Error writing batch to index",
			zap.String("collection", p.collection),
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		p.fail(failReasonBatchError, len(batch))
		return
	}

	p.processed += len(batch)
	if p.metrics != nil {
		p.metrics.RowsProcessed.WithLabelValues(p.collection).Add(float64(len(batch)))
	}
}

func (p *Processor) fail(reason string, n int) {
	p.failed += n
	if p.metrics != nil {
		p.metrics.RowsFailed.WithLabelValues(p.collection, reason).Add(float64(n))
	}
}
