package config

import (
	"time"

	"github.com/vietddude/storefront/internal/infra/api/cache"
	"github.com/vietddude/storefront/internal/infra/api/retry"
	redisclient "github.com/vietddude/storefront/internal/infra/redis"
)

// EnvAPIURL overrides api.base_url when set.
const EnvAPIURL = "MARKETPLACE_API_URL"

// AppConfig represents the top-level configuration.
type AppConfig struct {
	API     APIConfig          `yaml:"api"`
	Cache   cache.Config       `yaml:"cache"`
	Redis   redisclient.Config `yaml:"redis"`
	Search  SearchConfig       `yaml:"search"`
	Server  ServerConfig       `yaml:"server"`
	Logging LoggingConfig      `yaml:"logging"`
}

// APIConfig holds marketplace API client settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   *retry.Policy `yaml:"retry"`
	// RateLimit is requests per second; 0 = unlimited.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// SearchConfig holds search-as-you-type settings.
type SearchConfig struct {
	Debounce       time.Duration `yaml:"debounce"`
	MinQueryLength int           `yaml:"min_query_length"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int           `yaml:"port"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
