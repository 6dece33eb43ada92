package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecingest/internal/domain"
	"github.com/kailas-cloud/vecingest/internal/metrics"
)

type runner interface {
	Run(ctx context.Context) (domain.RunResult, error)
}

// Scheduler repeats ingest runs on a fixed interval. A failed run, including
// a panicking one, is logged and absorbed; the process keeps going until the
// context is canceled.
type Scheduler struct {
	service  runner
	interval time.Duration
	metrics  *metrics.Ingest
	logger   *zap.Logger
}

func NewScheduler(service runner, interval time.Duration, m *metrics.Ingest, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		service:  service,
		interval: interval,
		metrics:  m,
		logger:   logger,
	}
}

// Run executes runs until ctx is canceled. When the interval is disabled
// (zero or negative), a single run happens and the scheduler parks, keeping
// the process alive for its health and metrics endpoints.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		result, err := s.runOnce(ctx)
		switch {
		case err != nil:
			s.logger.Error("Ingest run failed", zap.Error(err))
			s.count("error")
		default:
			s.logger.Info("Ingest run finished",
				zap.Int("processed", result.Processed),
				zap.Int("failed", result.Failed),
				zap.Duration("duration", result.Duration))
			s.count("ok")
		}

		if s.interval <= 0 {
			s.logger.Info("Run interval disabled, waiting for shutdown")
			<-ctx.Done()
			return ctx.Err()
		}

		s.logger.Info("Sleeping before next ingest run", zap.Duration("interval", s.interval))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.interval):
		}
	}
}

// runOnce is the catch-all boundary around a single run.
func (s *Scheduler) runOnce(ctx context.Context) (result domain.RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ingest run panicked: %v", r)
		}
	}()

	return s.service.Run(ctx)
}

func (s *Scheduler) count(status string) {
	if s.metrics != nil {
		s.metrics.RunsTotal.WithLabelValues(status).Inc()
	}
}
