package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	WorkDir            string
	ModelDir           string
	JobStore           string
	SQLitePath         string
	DatabaseURL        string
	DispatchMode       string
	WorkerCount        int
	ChunkSeconds       int
	PausePollInterval  time.Duration
	WorkerPollInterval time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// Job store backends and dispatch modes accepted by LoadConfig.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	DispatchLocal = "local"
	DispatchPoll  = "poll"
)

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8000"),
		WorkDir:            getEnv("WORK_DIR", "work"),
		ModelDir:           getEnv("MODEL_DIR", "models"),
		JobStore:           getEnv("JOB_STORE", StoreMemory),
		SQLitePath:         getEnv("SQLITE_PATH", "work/jobs.db"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DispatchMode:       getEnv("DISPATCH_MODE", DispatchLocal),
		WorkerCount:        getEnvInt("WORKER_COUNT", 2),
		ChunkSeconds:       getEnvInt("SEGMENT_LENGTH_SECONDS", 60),
		PausePollInterval:  time.Second * time.Duration(getEnvInt("PAUSE_POLL_SECONDS", 1)),
		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 2)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 300)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.JobStore {
	case StoreMemory, StoreSQLite, StorePostgres:
	default:
		return nil, fmt.Errorf("unsupported JOB_STORE %q", cfg.JobStore)
	}
	if cfg.JobStore == StorePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required with JOB_STORE=postgres")
	}

	switch cfg.DispatchMode {
	case DispatchLocal, DispatchPoll:
	default:
		return nil, fmt.Errorf("unsupported DISPATCH_MODE %q", cfg.DispatchMode)
	}
	if cfg.DispatchMode == DispatchPoll && cfg.JobStore == StoreMemory {
		return nil, fmt.Errorf("DISPATCH_MODE=poll requires a durable job store")
	}

	if cfg.ChunkSeconds <= 0 {
		return nil, fmt.Errorf("SEGMENT_LENGTH_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
