package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Postgres fragment store
	DatabaseDSN string

	// Upstream legislation API
	LegislationAPIURL string
	LegislationAPIKey string

	// Auth for our own API
	StatextAPIKey string

	// Crawl behavior
	WorkerCount     int
	MaxQueueSize    int
	RequestInterval time.Duration
	FetchCacheSize  int
	CheckpointPath  string
	SourcesPath     string

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8091"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		LegislationAPIURL: envOr("LEGISLATION_API_URL", "https://legislation.nysenate.gov"),
		LegislationAPIKey: os.Getenv("LEGISLATION_API_KEY"),

		StatextAPIKey: os.Getenv("STATEXT_API_KEY"),

		WorkerCount:     envInt("WORKER_COUNT", 2),
		MaxQueueSize:    envInt("MAX_QUEUE_SIZE", 50),
		RequestInterval: envDuration("REQUEST_INTERVAL", 200*time.Millisecond),
		FetchCacheSize:  envInt("FETCH_CACHE_SIZE", 1024),
		CheckpointPath:  envOr("CHECKPOINT_PATH", "data/checkpoint.json"),
		SourcesPath:     envOr("SOURCES_PATH", "sources.yaml"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.FetchCacheSize <= 0 {
		cfg.FetchCacheSize = 1024
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.LegislationAPIKey == "" {
		return fmt.Errorf("LEGISLATION_API_KEY is required")
	}
	if c.StatextAPIKey == "" {
		return fmt.Errorf("STATEXT_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
