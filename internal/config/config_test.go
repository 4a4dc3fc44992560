package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_WithValidConfig(t *testing.T) {
	setEnv(t, "LEDGER_ENDPOINT", "https://storage.example.com")
	setEnv(t, "PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DefaultLedgerBucket, cfg.LedgerBucket)
	assert.Equal(t, DefaultLedgerKey, cfg.LedgerKey)
	assert.Equal(t, DefaultAnalyzerTimeout, cfg.AnalyzerTimeout)
}

func TestLoad_MissingLedgerSource(t *testing.T) {
	setEnv(t, "LEDGER_ENDPOINT", "")
	setEnv(t, "LEDGER_FILE", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ledger source is required")
}

func TestLoad_LocalFileIsEnough(t *testing.T) {
	setEnv(t, "LEDGER_ENDPOINT", "")
	setEnv(t, "LEDGER_FILE", "testdata/export.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "testdata/export.csv", cfg.LedgerFile)
}

func TestLoad_AnalyzerTimeoutMillis(t *testing.T) {
	setEnv(t, "LEDGER_FILE", "testdata/export.csv")
	setEnv(t, "ANALYZER_TIMEOUT_MS", "2500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, cfg.AnalyzerTimeout)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid object store config",
			config: Config{
				LedgerEndpoint:  "https://storage.example.com",
				LedgerBucket:    "fraud-data",
				LedgerKey:       "export.csv",
				AnalyzerTimeout: 5 * time.Second,
			},
			wantErr: "",
		},
		{
			name: "valid local file config",
			config: Config{
				LedgerFile:      "export.csv",
				AnalyzerTimeout: 5 * time.Second,
			},
			wantErr: "",
		},
		{
			name: "no ledger source",
			config: Config{
				AnalyzerTimeout: 5 * time.Second,
			},
			wantErr: "ledger source is required",
		},
		{
			name: "endpoint without bucket",
			config: Config{
				LedgerEndpoint:  "https://storage.example.com",
				LedgerKey:       "export.csv",
				AnalyzerTimeout: 5 * time.Second,
			},
			wantErr: "LEDGER_BUCKET is required",
		},
		{
			name: "endpoint without key",
			config: Config{
				LedgerEndpoint:  "https://storage.example.com",
				LedgerBucket:    "fraud-data",
				AnalyzerTimeout: 5 * time.Second,
			},
			wantErr: "LEDGER_KEY is required",
		},
		{
			name: "non-positive timeout",
			config: Config{
				LedgerFile: "export.csv",
			},
			wantErr: "ANALYZER_TIMEOUT_MS must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestGetEnv(t *testing.T) {
	setEnv(t, "TEST_VAR", "custom_value")

	assert.Equal(t, "custom_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NONEXISTENT_VAR", "default"))
}

func TestGetEnvInt64(t *testing.T) {
	setEnv(t, "TEST_INT", "42")
	setEnv(t, "TEST_INVALID", "not_a_number")

	assert.Equal(t, int64(42), getEnvInt64("TEST_INT", 0))
	assert.Equal(t, int64(99), getEnvInt64("NONEXISTENT_VAR", 99))
	assert.Equal(t, int64(99), getEnvInt64("TEST_INVALID", 99)) // Falls back on parse error
}
