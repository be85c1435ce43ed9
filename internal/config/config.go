// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"estoque/internal/domain"
	"estoque/internal/domain/adjustment"
)

// Config holds every setting of the server and the importer.
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string
	DBMaxConns  int32

	// PageSize bounds each keyset page read by the aggregators.
	PageSize       int
	OverdrawPolicy adjustment.OverdrawPolicy
	// AuditCompressThreshold is the snapshot size in bytes above which audit
	// snapshots are stored zstd-compressed.
	AuditCompressThreshold int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// StatementTimeout bounds statements of write transactions and
	// SnapshotTimeout those of the consolidation snapshot.
	StatementTimeout time.Duration
	SnapshotTimeout  time.Duration
}

// Development reports whether the service runs in development mode.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// InMemory reports whether no database is configured.
func (c *Config) InMemory() bool {
	return c.DatabaseURL == ""
}

// Load reads a .env file when present (files are optional, existing
// environment variables win) and builds the config.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() (*Config, error) {
	policy, err := adjustment.ParseOverdrawPolicy(os.Getenv("OVERDRAW_POLICY"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                   getEnv("APP_PORT", "8080"),
		Env:                    strings.ToLower(getEnv("APP_ENV", "development")),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DBMaxConns:             int32(getEnvInt("DB_MAX_CONNS", 10)),
		PageSize:               getEnvInt("PAGE_SIZE", domain.DefaultPageSize),
		OverdrawPolicy:         policy,
		AuditCompressThreshold: getEnvInt("AUDIT_COMPRESS_THRESHOLD", 1024),
		ReadTimeout:            getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:           getEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		StatementTimeout:       getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
		SnapshotTimeout:        getEnvDuration("DB_SNAPSHOT_TIMEOUT", 2*time.Minute),
	}

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	if cfg.DBMaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", cfg.DBMaxConns)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
