package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecingest/internal/domain"
)

// Config holds the settings for one dataset load.
type Config struct {
	Path       string // local file, directory, or s3://bucket/prefix
	Format     string // csv, parquet
	IDColumn   string
	TextColumn string
	S3         S3Options
}

// Load reads the dataset at cfg.Path and validates that the id and text
// columns exist. All failures here are run preconditions: they wrap
// domain.ErrConfiguration and fail the whole run without retry.
func Load(ctx context.Context, cfg Config, logger *zap.Logger) (*Table, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("dataset path is required: %w", domain.ErrConfiguration)
	}

	path := cfg.Path
	if strings.HasPrefix(path, "s3://") {
		staged, cleanup, err := stage(ctx, path, cfg.S3, logger)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", path, err)
		}
		defer cleanup()
		path = staged
	}

	var (
		table *Table
		err   error
	)
	switch strings.ToLower(cfg.Format) {
	case "csv":
		table, err = readCSV(path)
	case "parquet":
		table, err = readParquet(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (use csv or parquet): %w",
			cfg.Format, domain.ErrConfiguration)
	}
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range []string{cfg.IDColumn, cfg.TextColumn} {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns %v in dataset: %w",
			missing, domain.ErrConfiguration)
	}

	logger.Info("Dataset loaded",
		zap.String("path", cfg.Path),
		zap.String("format", cfg.Format),
		zap.Strings("columns", table.Columns),
		zap.Int("rows", len(table.Rows)),
	)
	return table, nil
}

// listFiles resolves path to a sorted list of data files. A file path is
// returned as-is; a directory is globbed for the given extensions.
func listFiles(path string, exts ...string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	for _, ext := range exts {
		matches, err := filepath.Glob(filepath.Join(path, "*"+ext))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", path, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", strings.Join(exts, "/"), path)
	}
	sort.Strings(files)
	return files, nil
}
