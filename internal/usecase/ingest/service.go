package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecingest/internal/dataset"
	"github.com/kailas-cloud/vecingest/internal/domain"
	"github.com/kailas-cloud/vecingest/internal/metrics"
)

// Config describes one ingest target: where the rows come from and which
// collection the points land in.
type Config struct {
	Dataset    dataset.Config
	Collection string
	VectorSize int
	Distance   domain.Distance
	IDColumn   string
	TextColumn string
	BatchSize  int
	Workers    int
}

// Service executes full ingest runs: load the dataset, make sure the
// collection exists, then fan the partitions out across the worker pool.
type Service struct {
	cfg         Config
	newEmbedder EmbedderFactory
	newWriter   WriterFactory
	pool        *ants.Pool
	metrics     *metrics.Ingest
	logger      *zap.Logger
}

func NewService(cfg Config, newEmbedder EmbedderFactory, newWriter WriterFactory, m *metrics.Ingest, logger *zap.Logger) (*Service, error) {
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("%w: workers must be positive", domain.ErrConfiguration)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive", domain.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &Service{
		cfg:         cfg,
		newEmbedder: newEmbedder,
		newWriter:   newWriter,
		pool:        pool,
		metrics:     m,
		logger:      logger,
	}, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Run performs one complete pass over the dataset. Record and batch failures
// are absorbed into the tally; only errors that prevent the run from
// happening at all (unreadable dataset, collection bootstrap failure) are
// returned.
func (s *Service) Run(ctx context.Context) (domain.RunResult, error) {
	start := time.Now()

	table, err := dataset.Load(ctx, s.cfg.Dataset, s.logger)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("load dataset: %w", err)
	}

	writer := s.newWriter()
	if err := writer.EnsureCollection(ctx, s.cfg.Collection, s.cfg.VectorSize, s.cfg.Distance); err != nil {
		return domain.RunResult{}, fmt.Errorf("ensure collection %q: %w", s.cfg.Collection, err)
	}

	parts := table.Partitions(s.cfg.Workers)
	s.logger.Info("Starting ingest run",
		zap.String("collection", s.cfg.Collection),
		zap.Int("rows", len(table.Rows)),
		zap.Int("partitions", len(parts)))

	results := make([]domain.PartitionResult, len(parts))

	var wg sync.WaitGroup
	for i, part := range parts {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = s.processPartition(ctx, i, part)
		}
		if err := s.pool.Submit(task); err != nil {
			// The pool only rejects work when it has been released;
			// run the partition inline rather than losing it.
			s.logger.Warn("Worker pool rejected partition, running inline",
				zap.Int("partition", i),
				zap.Error(err))
			task()
		}
	}
	wg.Wait()

	var total domain.PartitionResult
	for _, r := range results {
		total.Merge(r)
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RunDuration.Observe(duration.Seconds())
		s.metrics.LastRunProcessed.Set(float64(total.Processed))
		s.metrics.LastRunFailed.Set(float64(total.Failed))
	}

	return domain.RunResult{
		Processed: total.Processed,
		Failed:    total.Failed,
		Duration:  duration,
	}, nil
}

func (s *Service) processPartition(ctx context.Context, idx int, rows []domain.Record) domain.PartitionResult {
	proc := NewProcessor(ProcessorConfig{
		Embedder:   s.newEmbedder(),
		Writer:     s.newWriter(),
		Collection: s.cfg.Collection,
		IDColumn:   s.cfg.IDColumn,
		TextColumn: s.cfg.TextColumn,
		BatchSize:  s.cfg.BatchSize,
		Metrics:    s.metrics,
		Logger:     s.logger,
	})

	result := proc.Run(ctx, rows)
	s.logger.Debug("Partition finished",
		zap.Int("partition", idx),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed))

	return result
}
