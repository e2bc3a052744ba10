package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/storefront/internal/infra/api/cache"
	"github.com/vietddude/storefront/internal/infra/api/retry"
)

// Default values.
const (
	DefaultBaseURL        = "https://api.marketplace.example.com/api"
	DefaultTimeout        = 30 * time.Second
	DefaultCacheTTL       = time.Minute
	DefaultDebounce       = 300 * time.Millisecond
	DefaultMinQueryLength = 2
	DefaultPort           = 8080
	DefaultProbeInterval  = 30 * time.Second
)

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. MARKETPLACE_API_URL overrides api.base_url.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if url := os.Getenv(EnvAPIURL); url != "" {
		cfg.API.BaseURL = url
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultTimeout
	}
	if c.API.Retry == nil {
		policy := retry.DefaultPolicy
		c.API.Retry = &policy
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = cache.BackendNone
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Search.Debounce == 0 {
		c.Search.Debounce = DefaultDebounce
	}
	if c.Search.MinQueryLength == 0 {
		c.Search.MinQueryLength = DefaultMinQueryLength
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ProbeInterval == 0 {
		c.Server.ProbeInterval = DefaultProbeInterval
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks values that defaults cannot fix.
func (c *AppConfig) Validate() error {
	switch c.Cache.Backend {
	case cache.BackendNone, cache.BackendMemory:
	case cache.BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("cache backend redis requires redis.url")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if err := c.API.Retry.Validate(); err != nil {
		return fmt.Errorf("api.retry: %w", err)
	}
	if c.API.RateLimit < 0 {
		return errors.New("api.rate_limit must not be negative")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}
