package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/storefront/internal/infra/api/retry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_REDIS_URL", "redis://localhost:6380/1")

	cfg, err := Load(writeConfig(t, `
cache:
  backend: redis
redis:
  url: ${TEST_REDIS_URL}
`))
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6380/1", cfg.Redis.URL)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	require.NotNil(t, cfg.API.Retry)
	assert.Equal(t, retry.DefaultPolicy, *cfg.API.Retry)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce)
}

func TestLoad_EnvOverridesBaseURL(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://localhost:9000/api")

	cfg, err := Load(writeConfig(t, `
api:
  base_url: https://other.example.com/api
`))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/api", cfg.API.BaseURL)
}

func TestLoad_Values(t *testing.T) {
	t.Setenv(EnvAPIURL, "")

	cfg, err := Load(writeConfig(t, `
api:
  base_url: http://localhost:8081/api
  timeout: 5s
  rate_limit: 10
  retry:
    max_retries: 5
    base_delay: 200ms
    max_delay: 2s
search:
  debounce: 150ms
server:
  port: 9090
logging:
  level: debug
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10.0, cfg.API.RateLimit)
	assert.Equal(t, retry.Policy{MaxRetries: 5, BaseDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second, BackoffMultiplier: 2}, *cfg.API.Retry)
	assert.Equal(t, 150*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 2, cfg.Search.MinQueryLength)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "api: [unterminated"},
		{"unknown backend", "cache:\n  backend: memcached\n"},
		{"redis without url", "cache:\n  backend: redis\n"},
		{"negative retries", "api:\n  retry:\n    max_retries: -1\n"},
		{"zero max delay", "api:\n  retry:\n    max_delay: 0s\n"},
		{"zero multiplier", "api:\n  retry:\n    backoff_multiplier: 0\n"},
		{"unknown format", "logging:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_RetryFieldsDefaultIndividually(t *testing.T) {
	t.Setenv(EnvAPIURL, "")

	tests := []struct {
		name    string
		content string
		want    retry.Policy
	}{
		{
			name:    "max_retries zero alone means one attempt",
			content: "api:\n  retry:\n    max_retries: 0\n",
			want:    retry.Policy{MaxRetries: 0, BaseDelay: time.Second, MaxDelay: 10 * time.Second, BackoffMultiplier: 2},
		},
		{
			name:    "only delay set",
			content: "api:\n  retry:\n    base_delay: 50ms\n",
			want:    retry.Policy{MaxRetries: 3, BaseDelay: 50 * time.Millisecond, MaxDelay: 10 * time.Second, BackoffMultiplier: 2},
		},
		{
			name:    "empty block",
			content: "api:\n  retry:\n",
			want:    retry.DefaultPolicy,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))
			require.NoError(t, err)
			require.NotNil(t, cfg.API.Retry)
			assert.Equal(t, tt.want, *cfg.API.Retry)
		})
	}

	cfg, err := Load(writeConfig(t, "api:\n  retry:\n    max_retries: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.API.Retry.Attempts())
}
