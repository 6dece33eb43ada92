package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3Options holds credentials for s3:// dataset paths.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// stage downloads every object under an s3://bucket/prefix URI into a
// temporary directory and returns the local directory plus a cleanup func.
func stage(ctx context.Context, uri string, opts S3Options, logger *zap.Logger) (string, func(), error) {
	bucket, prefix, err := splitS3URI(uri)
	if err != nil {
		return "", nil, err
	}
	if opts.Endpoint == "" {
		return "", nil, fmt.Errorf("s3 endpoint is required for %s", uri)
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return "", nil, fmt.Errorf("s3 client: %w", err)
	}

	dir, err := os.MkdirTemp("", "vecingest-stage-")
	if err != nil {
		return "", nil, fmt.Errorf("temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	count := 0
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			cleanup()
			return "", nil, fmt.Errorf("list s3 objects: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") || obj.Size == 0 {
			continue
		}

		local := filepath.Join(dir, filepath.Base(obj.Key))
		if err := client.FGetObject(ctx, bucket, obj.Key, local, minio.GetObjectOptions{}); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("fetch %s: %w", obj.Key, err)
		}
		count++
	}
	if count == 0 {
		cleanup()
		return "", nil, fmt.Errorf("no objects found under %s", uri)
	}

	logger.Info("Dataset staged from object storage",
		zap.String("uri", uri),
		zap.Int("objects", count),
		zap.String("dir", dir),
	)
	return dir, cleanup, nil
}

func splitS3URI(uri string) (bucket, prefix string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q", uri)
	}
	return bucket, prefix, nil
}
