package domain

import "errors"

var (
	// ErrConfiguration marks an invalid run precondition: missing dataset
	// path, unsupported format, or required columns absent from the schema.
	ErrConfiguration = errors.New("configuration")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
