// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Fraud ledger source. Either an object store location or a local
	// file path; exactly one of the two must resolve.
	LedgerEndpoint string // Object store base URL
	LedgerBucket   string
	LedgerKey      string
	LedgerFile     string // Local file override for dev

	// Analysis engine
	AnalyzerURL     string        // Remote scoring service (optional, local engine if not set)
	AnalyzerTimeout time.Duration // Per-analysis deadline

	// Security
	RateLimitRPS int

	// Telemetry
	OTLPEndpoint string // OTLP gRPC endpoint (optional, tracing disabled if not set)
}

const (
	DefaultPort            = "8080"
	DefaultEnv             = "development"
	DefaultLogLevel        = "info"
	DefaultLedgerBucket    = "fraud-detection-purchase-history-tf"
	DefaultLedgerKey       = "BaseFinal.csv"
	DefaultAnalyzerTimeout = 5 * time.Second
	DefaultRateLimit       = 100
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", DefaultPort),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:     os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		LedgerEndpoint:  os.Getenv("LEDGER_ENDPOINT"),
		LedgerBucket:    getEnv("LEDGER_BUCKET", DefaultLedgerBucket),
		LedgerKey:       getEnv("LEDGER_KEY", DefaultLedgerKey),
		LedgerFile:      os.Getenv("LEDGER_FILE"),
		AnalyzerURL:     os.Getenv("ANALYZER_URL"),
		AnalyzerTimeout: getEnvDurationMS("ANALYZER_TIMEOUT_MS", DefaultAnalyzerTimeout),
		RateLimitRPS:    int(getEnvInt64("RATE_LIMIT_RPS", int64(DefaultRateLimit))),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.LedgerFile == "" && c.LedgerEndpoint == "" {
		return fmt.Errorf("a ledger source is required: set LEDGER_ENDPOINT or LEDGER_FILE")
	}
	if c.LedgerEndpoint != "" {
		if c.LedgerBucket == "" {
			return fmt.Errorf("LEDGER_BUCKET is required with LEDGER_ENDPOINT")
		}
		if c.LedgerKey == "" {
			return fmt.Errorf("LEDGER_KEY is required with LEDGER_ENDPOINT")
		}
	}
	if c.AnalyzerTimeout <= 0 {
		return fmt.Errorf("ANALYZER_TIMEOUT_MS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDurationMS(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
