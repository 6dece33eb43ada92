package config

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Ingest.BatchSize != 64 {
		t.Errorf("batch_size default = %d, want 64", cfg.Ingest.BatchSize)
	}
	if cfg.Qdrant.VectorSize != 768 {
		t.Errorf("vector_size default = %d, want 768", cfg.Qdrant.VectorSize)
	}
	if cfg.Qdrant.Distance != "cosine" {
		t.Errorf("distance default = %q, want cosine", cfg.Qdrant.Distance)
	}
	if cfg.Embedding.RequestTimeoutSec != 30 {
		t.Errorf("request_timeout_sec default = %d, want 30", cfg.Embedding.RequestTimeoutSec)
	}
	if cfg.Embedding.Provider != "encode" {
		t.Errorf("provider default = %q, want encode", cfg.Embedding.Provider)
	}
	if cfg.Dataset.IDColumn != "id" || cfg.Dataset.TextColumn != "text" {
		t.Errorf("column defaults = %q/%q, want id/text", cfg.Dataset.IDColumn, cfg.Dataset.TextColumn)
	}
}

func TestApplyDefaults_KeepsDisabledInterval(t *testing.T) {
	cfg := Config{}
	cfg.Ingest.RunIntervalSec = 0
	cfg.ApplyDefaults()

	if cfg.Ingest.RunIntervalSec != 0 {
		t.Errorf("run_interval_sec was defaulted to %d; zero must survive", cfg.Ingest.RunIntervalSec)
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.Embedding.Provider = "ollama"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown embedding provider")
	}
}

func TestValidate_OpenAIRequiresModel(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.Embedding.Provider = "openai"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for openai provider without model")
	}

	cfg.Embedding.Model = "text-embedding-3-small"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with model set: %v", err)
	}
}

func TestQdrantConfig_BaseURL(t *testing.T) {
	cfg := QdrantConfig{Host: "qdrant", Port: 6333}
	if got := cfg.BaseURL(); got != "http://qdrant:6333" {
		t.Errorf("host/port BaseURL = %q", got)
	}

	cfg.URL = "https://cloud.example.com:443/"
	if got := cfg.BaseURL(); got != "https://cloud.example.com:443" {
		t.Errorf("explicit URL BaseURL = %q", got)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("VECINGEST_TEST_PATH", "/data/input")
	os.Unsetenv("VECINGEST_TEST_UNSET")

	raw := []byte("dataset:\n  path: ${VECINGEST_TEST_PATH}\n  format: ${VECINGEST_TEST_UNSET:-csv}\n")

	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(raw), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if cfg.Dataset.Path != "/data/input" {
		t.Errorf("path = %q, want /data/input", cfg.Dataset.Path)
	}
	if cfg.Dataset.Format != "csv" {
		t.Errorf("format default = %q, want csv", cfg.Dataset.Format)
	}
}
