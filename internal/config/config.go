package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the vecingest pipeline configuration.
type Config struct {
	Dataset   DatasetConfig   `yaml:"dataset"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Ops       OpsConfig       `yaml:"ops"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// DatasetConfig holds the source dataset settings.
//
// Path and Format are deliberately not validated at load time: a missing
// path or unsupported format fails one ingest run, not the process.
type DatasetConfig struct {
	Path       string   `yaml:"path"`   // local path or s3://bucket/prefix
	Format     string   `yaml:"format"` // csv, parquet
	IDColumn   string   `yaml:"id_column"`
	TextColumn string   `yaml:"text_column"`
	S3         S3Config `yaml:"s3"`
}

// S3Config holds credentials for s3:// dataset paths.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// QdrantConfig holds the vector index connection and collection settings.
type QdrantConfig struct {
	URL        string `yaml:"url"` // full URL; overrides host/port when set
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	Distance   string `yaml:"distance"` // resolved case-insensitively, unknown → cosine
	VectorSize int    `yaml:"vector_size"`
}

// BaseURL returns the index endpoint, preferring the explicit URL.
func (c QdrantConfig) BaseURL() string {
	if c.URL != "" {
		return strings.TrimRight(c.URL, "/")
	}
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"` // encode, openai
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	Model             string  `yaml:"model"`      // openai provider only
	Dimensions        int     `yaml:"dimensions"` // openai provider only
	RequestTimeoutSec int     `yaml:"request_timeout_sec"`
	RateLimitRPS      float64 `yaml:"rate_limit_rps"` // 0 = unlimited
}

// RequestTimeout returns the per-request embedding timeout.
func (c EmbeddingConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// CacheConfig holds the optional embedding cache settings.
// An empty address list disables the cache.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLHours int      `yaml:"ttl_hours"` // 0 = no expiry
}

// Enabled reports whether the embedding cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// TTL returns the cache entry TTL.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLHours) * time.Hour }

// IngestConfig holds batching, parallelism and scheduling settings.
type IngestConfig struct {
	BatchSize      int `yaml:"batch_size"`
	Workers        int `yaml:"workers"`
	RunIntervalSec int `yaml:"run_interval_sec"` // <=0 disables re-runs but keeps the process alive
}

// RunInterval returns the pause between runs.
func (c IngestConfig) RunInterval() time.Duration {
	return time.Duration(c.RunIntervalSec) * time.Second
}

// OpsConfig holds the metrics/health endpoint settings.
type OpsConfig struct {
	Port int `yaml:"port"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
// RunIntervalSec is left untouched: zero and negative values mean
// "run once, then park", which must stay distinguishable from unset.
func (c *Config) ApplyDefaults() {
	if c.Dataset.Format == "" {
		c.Dataset.Format = "parquet"
	}
	if c.Dataset.IDColumn == "" {
		c.Dataset.IDColumn = "id"
	}
	if c.Dataset.TextColumn == "" {
		c.Dataset.TextColumn = "text"
	}
	if c.Qdrant.Host == "" {
		c.Qdrant.Host = "localhost"
	}
	if c.Qdrant.Port <= 0 {
		c.Qdrant.Port = 6333
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "embeddings"
	}
	if c.Qdrant.Distance == "" {
		c.Qdrant.Distance = "cosine"
	}
	if c.Qdrant.VectorSize <= 0 {
		c.Qdrant.VectorSize = 768
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "encode"
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "http://embedding-api:8000"
	}
	if c.Embedding.RequestTimeoutSec <= 0 {
		c.Embedding.RequestTimeoutSec = 30
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 64
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 4
	}
	if c.Ops.Port <= 0 {
		c.Ops.Port = 9090
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "encode", "openai":
		// ok
	default:
		return fmt.Errorf("embedding.provider must be \"encode\" or \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Provider == "openai" && c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required for the openai provider")
	}
	if c.Ops.Port > 65535 {
		return fmt.Errorf("ops.port must be between 1 and 65535, got %d", c.Ops.Port)
	}
	if c.Embedding.RateLimitRPS < 0 {
		return fmt.Errorf("embedding.rate_limit_rps must not be negative, got %v", c.Embedding.RateLimitRPS)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
