package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

func TestLoadBytesKeepsDefaults(t *testing.T) {
	cfg := NewCodaSourceConfig()
	require.NoError(t, LoadBytes([]byte(`{"api_key":"abc"}`), cfg))

	assert.Equal(t, "abc", cfg.APIKey)
	assert.Equal(t, DefaultCodaBaseURL, cfg.BaseURL)
	assert.True(t, cfg.IsOwner)
	assert.True(t, cfg.UseColumnNames)
	assert.Equal(t, "simpleWithArrays", cfg.ValueFormat)
	assert.Equal(t, CheckModeFull, cfg.CheckMode)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Request)
	assert.Equal(t, 3, cfg.Reliability.RetryAttempts)
	assert.NoError(t, cfg.Validate())
}

func TestLoadBytesOverrides(t *testing.T) {
	cfg := NewCodaSourceConfig()
	data := []byte(`{
  "api_key": "abc",
  "base_url": "http://127.0.0.1:8080/apis/v1/",
  "is_owner": false,
  "page_size": 25,
  "timeouts": {"request": "5s"},
  "reliability": {"retry_attempts": 0, "retry_delay": "10ms", "circuit_breaker": false}
}`)
	require.NoError(t, LoadBytes(data, cfg))

	assert.False(t, cfg.IsOwner)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Request)
	assert.Equal(t, 0, cfg.Reliability.RetryAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Reliability.RetryDelay)
	assert.False(t, cfg.Reliability.CircuitBreaker)
	assert.Equal(t, "http://127.0.0.1:8080/apis/v1", cfg.Endpoint())
	assert.NoError(t, cfg.Validate())
}

func TestLoadBytesYAML(t *testing.T) {
	t.Setenv("CODA_TEST_KEY", "from-env")

	cfg := NewCodaSourceConfig()
	data := []byte("api_key: ${CODA_TEST_KEY}\nvalue_format: rich\n")
	require.NoError(t, LoadBytes(data, cfg))

	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "rich", cfg.ValueFormat)
}

func TestLoadBytesErrors(t *testing.T) {
	cfg := NewCodaSourceConfig()

	err := LoadBytes([]byte("   "), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	err = LoadBytes([]byte(`{"api_key": `), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CodaSourceConfig)
		wantErr string
	}{
		{"valid", func(c *CodaSourceConfig) {}, ""},
		{"missing api key", func(c *CodaSourceConfig) { c.APIKey = "" }, "api_key is required"},
		{"blank api key", func(c *CodaSourceConfig) { c.APIKey = "  " }, "api_key is required"},
		{"relative base url", func(c *CodaSourceConfig) { c.BaseURL = "/apis/v1" }, "base_url"},
		{"ftp base url", func(c *CodaSourceConfig) { c.BaseURL = "ftp://coda.io" }, "base_url"},
		{"bad value format", func(c *CodaSourceConfig) { c.ValueFormat = "xml" }, "value_format"},
		{"bad check mode", func(c *CodaSourceConfig) { c.CheckMode = "rows" }, "check_mode"},
		{"negative page size", func(c *CodaSourceConfig) { c.PageSize = -1 }, "page_size"},
		{"zero request timeout", func(c *CodaSourceConfig) { c.Timeouts.Request = 0 }, "timeouts.request"},
		{"negative retries", func(c *CodaSourceConfig) { c.Reliability.RetryAttempts = -1 }, "retry_attempts"},
		{"negative rate", func(c *CodaSourceConfig) { c.Reliability.RateLimitPerSec = -5 }, "rate_limit_per_sec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewCodaSourceConfig()
			cfg.APIKey = "abc"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
}

func TestLoadCodaSource(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"api_key":"abc"}`), 0o600))
	cfg, err := LoadCodaSource(good)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.APIKey)

	missingKey := filepath.Join(dir, "missing.json")
	require.NoError(t, os.WriteFile(missingKey, []byte(`{}`), 0o600))
	_, err = LoadCodaSource(missingKey)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = LoadCodaSource(filepath.Join(dir, "absent.json"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("A_VAR", "x")
	assert.Equal(t, "x-x-", substituteEnvVars("${A_VAR}-${A_VAR}-${UNSET_CODA_VAR}"))
	assert.Equal(t, "no vars", substituteEnvVars("no vars"))
	assert.Equal(t, "open ${A_VAR", substituteEnvVars("open ${A_VAR"))
}
