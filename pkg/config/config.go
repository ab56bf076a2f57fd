// Package config loads application configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Driver names for the persistence layer.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv     string
	LogLevel   string
	OperatorID string

	// Database
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	MaxConns       int

	// Redis. Empty means the in-process locker.
	RedisURL string

	// RabbitMQ. Empty means the in-process event bus.
	RabbitMQURL string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string

	// SMS provider
	SMSEnabled       bool
	SMSProviderURL   string
	SMSAPIKey        string
	SMSDirectoryPath string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		OperatorID: getEnv("ROTA_OPERATOR_ID", "00000000-0000-0000-0000-000000000001"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("ROTA_SQLITE_PATH", defaultSQLitePath()),
		MaxConns:    getIntEnv("DATABASE_MAX_CONNS", 10),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		SMSEnabled:       getBoolEnv("SMS_ENABLED", false),
		SMSProviderURL:   getEnv("SMS_PROVIDER_URL", ""),
		SMSAPIKey:        getEnv("SMS_API_KEY", ""),
		SMSDirectoryPath: getEnv("SMS_DIRECTORY_FILE", ""),
	}

	// Single-binary local mode runs on SQLite unless a database URL points at
	// Postgres.
	cfg.DatabaseDriver = getEnv("DATABASE_DRIVER", "")
	if cfg.DatabaseDriver == "" {
		if cfg.DatabaseURL != "" {
			cfg.DatabaseDriver = DriverPostgres
		} else {
			cfg.DatabaseDriver = DriverSQLite
		}
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LocalMode reports whether the engine runs as a single binary without
// external infrastructure.
func (c *Config) LocalMode() bool {
	return c.DatabaseDriver == DriverSQLite
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rota.db"
	}
	return home + "/.rota/rota.db"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
