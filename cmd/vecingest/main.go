package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vecingest/internal/config"
	"github.com/kailas-cloud/vecingest/internal/dataset"
	"github.com/kailas-cloud/vecingest/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/vecingest/internal/db/redis"
	"github.com/kailas-cloud/vecingest/internal/domain"
	logpkg "github.com/kailas-cloud/vecingest/internal/logger"
	"github.com/kailas-cloud/vecingest/internal/metrics"
	"github.com/kailas-cloud/vecingest/internal/repository/embcache"
	"github.com/kailas-cloud/vecingest/internal/transport/encode"
	openaiEmb "github.com/kailas-cloud/vecingest/internal/transport/openai"
	"github.com/kailas-cloud/vecingest/internal/usecase/ingest"
	"github.com/kailas-cloud/vecingest/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "vecingest",
		Usage:   "Batch ingestion pipeline: tabular datasets into a vector index",
		Version: version.Version,
		Action: func(c *cli.Context) error {
			return runPipeline(c.Context, false)
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the ingest loop on the configured interval",
				Action: func(c *cli.Context) error {
					return runPipeline(c.Context, false)
				},
			},
			{
				Name:  "once",
				Usage: "Run a single ingest pass and exit",
				Action: func(c *cli.Context) error {
					return runPipeline(c.Context, true)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPipeline(parent context.Context, once bool) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecingest",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("collection", cfg.Qdrant.Collection),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Int("batch_size", cfg.Ingest.BatchSize),
		zap.Int("workers", cfg.Ingest.Workers),
	)

	reg := prometheus.NewRegistry()
	m := metrics.NewIngest(reg)

	// Optional embedding cache backed by Redis.
	var cache *dbRedis.Store
	if cfg.Cache.Enabled() {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return fmt.Errorf("connect embedding cache: %w", err)
		}
		defer cache.Close()
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	newEmbedder := embedderFactory(cfg, cache, m, logger)
	newWriter := func() ingest.Writer {
		return qdrant.New(qdrant.Config{
			BaseURL: cfg.Qdrant.BaseURL(),
			APIKey:  cfg.Qdrant.APIKey,
			Timeout: cfg.Embedding.RequestTimeout(),
			Logger:  logger,
		})
	}

	svc, err := ingest.NewService(ingest.Config{
		Dataset: dataset.Config{
			Path:       cfg.Dataset.Path,
			Format:     cfg.Dataset.Format,
			IDColumn:   cfg.Dataset.IDColumn,
			TextColumn: cfg.Dataset.TextColumn,
			S3: dataset.S3Options{
				Endpoint:  cfg.Dataset.S3.Endpoint,
				AccessKey: cfg.Dataset.S3.AccessKey,
				SecretKey: cfg.Dataset.S3.SecretKey,
				UseSSL:    cfg.Dataset.S3.UseSSL,
			},
		},
		Collection: cfg.Qdrant.Collection,
		VectorSize: cfg.Qdrant.VectorSize,
		Distance:   domain.ResolveDistance(cfg.Qdrant.Distance),
		IDColumn:   cfg.Dataset.IDColumn,
		TextColumn: cfg.Dataset.TextColumn,
		BatchSize:  cfg.Ingest.BatchSize,
		Workers:    cfg.Ingest.Workers,
	}, newEmbedder, newWriter, m, logger)
	if err != nil {
		return fmt.Errorf("create ingest service: %w", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once {
		result, err := svc.Run(ctx)
		if err != nil {
			return fmt.Errorf("ingest run: %w", err)
		}
		logger.Info("Ingest run finished",
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed),
			zap.Duration("duration", result.Duration))
		return nil
	}

	probe := embeddingProbe(cfg, m, logger)
	opsSrv := metrics.NewServer(cfg.Ops.Port, reg, func() bool {
		probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return probe.HealthCheck(probeCtx) == nil
	})
	sched := ingest.NewScheduler(svc, cfg.Ingest.RunInterval(), m, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting ops endpoint", zap.String("addr", opsSrv.Addr))
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops endpoint: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return opsSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		err := sched.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Stopped gracefully")
	return nil
}

// embeddingProbe builds the provider used by /readyz. It bypasses the cache:
// readiness should reflect the live provider.
func embeddingProbe(cfg config.Config, m *metrics.Ingest, logger *zap.Logger) domain.HealthChecker {
	if cfg.Embedding.Provider == "openai" {
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})
	}
	return encode.New(encode.Config{
		BaseURL: cfg.Embedding.BaseURL,
		Timeout: cfg.Embedding.RequestTimeout(),
		Metrics: m,
		Logger:  logger,
	})
}

// embedderFactory returns the per-partition embedder constructor, wrapping
// the configured provider with the cache decorator when a cache is present.
func embedderFactory(cfg config.Config, cache *dbRedis.Store, m *metrics.Ingest, logger *zap.Logger) ingest.EmbedderFactory {
	return func() ingest.Embedder {
		var base domain.Embedder
		switch cfg.Embedding.Provider {
		case "openai":
			base = openaiEmb.NewEmbedder(&openaiEmb.Config{
				APIKey:     cfg.Embedding.APIKey,
				BaseURL:    cfg.Embedding.BaseURL,
				Model:      cfg.Embedding.Model,
				Dimensions: cfg.Embedding.Dimensions,
				Metrics:    m,
				Logger:     logger,
			})
		default:
			base = encode.New(encode.Config{
				BaseURL:      cfg.Embedding.BaseURL,
				Timeout:      cfg.Embedding.RequestTimeout(),
				RateLimitRPS: cfg.Embedding.RateLimitRPS,
				Metrics:      m,
				Logger:       logger,
			})
		}

		if cache == nil {
			return base
		}
		return embcache.New(base, cache, cfg.Cache.TTL(), m.EmbedCache, logger)
	}
}
