package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// DataDir roots the file-backed knowledge base store.
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	// DatabaseURL switches persistence to the Postgres/pgvector backend.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Chunking
	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`

	// Embedding
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	EmbedWorkers int    `envconfig:"EMBED_WORKERS"`

	// Retrieval
	MinSimilarity   float32 `envconfig:"MIN_SIMILARITY" default:"0.1"`
	MaxContextChars int     `envconfig:"MAX_CONTEXT_CHARS" default:"8000"`
	ForceTopResults int     `envconfig:"FORCE_TOP_RESULTS" default:"0"`
	MaxSources      int     `envconfig:"MAX_SOURCES" default:"3"`

	// URL ingestion
	FetchTimeoutSeconds int `envconfig:"FETCH_TIMEOUT_SECONDS" default:"30"`

	// Backup to S3-compatible storage
	S3Endpoint          string `envconfig:"S3_ENDPOINT"`
	S3AccessKey         string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey         string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket            string `envconfig:"S3_BUCKET" default:"botsy-knowledge"`
	S3Region            string `envconfig:"S3_REGION" default:"us-east-1"`
	SnapshotPollSeconds int    `envconfig:"SNAPSHOT_POLL_SECONDS" default:"60"`

	// Telemetry
	SentryDSN         string  `envconfig:"SENTRY_DSN"`
	SentryEnvironment string  `envconfig:"SENTRY_ENVIRONMENT"`
	SentrySampleRate  float64 `envconfig:"SENTRY_SAMPLE_RATE" default:"1.0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("BOTSY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
