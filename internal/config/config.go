package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Browser   BrowserConfig   `yaml:"browser"`
	Provider  ProviderConfig  `yaml:"provider"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	APIKey  string `yaml:"api_key"`
}

// CacheConfig controls how long fetched results are reused
type CacheConfig struct {
	Backend          string `yaml:"backend"` // memory | redis
	RedisAddr        string `yaml:"redis_addr"`
	RedisPassword    string `yaml:"redis_password"`
	RedisDB          int    `yaml:"redis_db"`
	StaleTimeSeconds int    `yaml:"stale_time_seconds"`
	CacheTimeSeconds int    `yaml:"cache_time_seconds"`
}

// RefreshConfig contains settings for the best-effort refresh endpoint
type RefreshConfig struct {
	Enabled                 bool   `yaml:"enabled"`
	BaseURL                 string `yaml:"base_url"`
	Path                    string `yaml:"path"`
	AnonKey                 string `yaml:"anon_key"`
	TimeoutSeconds          int    `yaml:"timeout_seconds"`
	BreakerFailureThreshold int    `yaml:"breaker_failure_threshold"`
	BreakerResetSeconds     int    `yaml:"breaker_reset_seconds"`
}

// BrowserConfig contains fetch orchestration settings
type BrowserConfig struct {
	QueryTimeoutSeconds int  `yaml:"query_timeout_seconds"`
	SampleFallback      bool `yaml:"sample_fallback"`
}

// ProviderConfig contains the upstream listings API settings
type ProviderConfig struct {
	BaseURL        string `yaml:"base_url"`
	RapidAPIKey    string `yaml:"rapidapi_key"`
	RapidAPIHost   string `yaml:"rapidapi_host"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageSize       int    `yaml:"page_size"`
}

// RateLimitConfig contains rate limiting settings for provider calls
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// SchedulerConfig controls the periodic ingestion job
type SchedulerConfig struct {
	Enabled bool     `yaml:"enabled"`
	Cron    string   `yaml:"cron"`
	Cities  []string `yaml:"cities"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type: "postgres",
			Postgres: PostgresConfig{
				SSLMode: "disable",
			},
		},
		Cache: CacheConfig{
			Backend:          "memory",
			StaleTimeSeconds: 5 * 60,
			CacheTimeSeconds: 10 * 60,
		},
		Refresh: RefreshConfig{
			Enabled:                 true,
			Path:                    "/functions/v1/fetch-properties",
			TimeoutSeconds:          10,
			BreakerFailureThreshold: 3,
			BreakerResetSeconds:     60,
		},
		Browser: BrowserConfig{
			QueryTimeoutSeconds: 15,
			SampleFallback:      false,
		},
		Provider: ProviderConfig{
			BaseURL:        "https://realtor.p.rapidapi.com",
			RapidAPIHost:   "realtor.p.rapidapi.com",
			TimeoutSeconds: 30,
			PageSize:       20,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 10,
			RequestsPerHour:   100,
			RequestsPerDay:    500,
		},
		Scheduler: SchedulerConfig{
			Enabled: false,
			Cron:    "0 */6 * * *",
			Cities:  []string{"Mumbai"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Port:           "8084",
			AllowedOrigins: []string{"*"},
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// StaleTime is how long a cached result is served without re-querying
func (c *CacheConfig) StaleTime() time.Duration {
	return time.Duration(c.StaleTimeSeconds) * time.Second
}

// CacheTime is how long a cached result is kept as fallback data
func (c *CacheConfig) CacheTime() time.Duration {
	return time.Duration(c.CacheTimeSeconds) * time.Second
}

// GetTimeout returns the refresh timeout as a duration
func (c *RefreshConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetBreakerReset returns the circuit breaker reset timeout as a duration
func (c *RefreshConfig) GetBreakerReset() time.Duration {
	return time.Duration(c.BreakerResetSeconds) * time.Second
}

// GetQueryTimeout returns the store query timeout as a duration
func (c *BrowserConfig) GetQueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// GetTimeout returns the provider timeout as a duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
