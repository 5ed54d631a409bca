package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/civicdex/internal/logger"
)

// Fetch cache drivers.
const (
	CacheDriverNone   = "none"
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
	CacheDriverValkey = "valkey"
)

// Config holds the civicdex configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Search     SearchConfig     `yaml:"search"`
	Chat       ChatConfig       `yaml:"chat"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Sources    SourcesConfig    `yaml:"sources"`
	FetchCache FetchCacheConfig `yaml:"fetch_cache"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// LoggingConfig holds logging settings. File enables a rotating JSON log file.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SearchConfig holds ranking settings.
type SearchConfig struct {
	PerCategoryTarget int `yaml:"per_category_target"`
}

// ChatConfig holds chat responder settings.
type ChatConfig struct {
	MaxContextDocs int `yaml:"max_context_docs"`
	HistoryLimit   int `yaml:"history_limit"`
}

// IngestConfig holds ingestion scheduling.
type IngestConfig struct {
	OnStartup          bool `yaml:"on_startup"`
	RefreshIntervalSec int  `yaml:"refresh_interval_sec"` // 0 disables periodic refresh
	LimitPerSource     int  `yaml:"limit_per_source"`
	TimeoutSec         int  `yaml:"timeout_sec"`
}

// SourcesConfig groups the upstream sources.
type SourcesConfig struct {
	OpenData OpenDataConfig `yaml:"open_data"`
	Clerk    ClerkConfig    `yaml:"clerk"`
}

// OpenDataConfig configures the Chicago data portal datasets.
type OpenDataConfig struct {
	Enabled           bool     `yaml:"enabled"`
	BaseURL           string   `yaml:"base_url"`
	AppToken          string   `yaml:"app_token"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Datasets          []string `yaml:"datasets"` // empty = all built-in datasets
}

// ClerkConfig configures the City Clerk legislation API.
type ClerkConfig struct {
	Enabled           bool           `yaml:"enabled"`
	BaseURL           string         `yaml:"base_url"`
	RequestsPerSecond float64        `yaml:"requests_per_second"`
	RecentLimit       int            `yaml:"recent_limit"`
	CategoryLimits    map[string]int `yaml:"category_limits"`
}

// FetchCacheConfig configures the raw upstream payload cache.
type FetchCacheConfig struct {
	Driver           string   `yaml:"driver"` // none, memory, redis, valkey (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates a configuration file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Logging.File != "" {
		if c.Logging.MaxSizeMB <= 0 {
			c.Logging.MaxSizeMB = 100
		}
		if c.Logging.MaxBackups <= 0 {
			c.Logging.MaxBackups = 3
		}
		if c.Logging.MaxAgeDays <= 0 {
			c.Logging.MaxAgeDays = 28
		}
	}
	if c.Search.PerCategoryTarget <= 0 {
		c.Search.PerCategoryTarget = 5
	}
	if c.Chat.MaxContextDocs <= 0 {
		c.Chat.MaxContextDocs = 3
	}
	if c.Chat.HistoryLimit <= 0 {
		c.Chat.HistoryLimit = 1000
	}
	if c.Ingest.LimitPerSource <= 0 {
		c.Ingest.LimitPerSource = 50
	}
	if c.Ingest.TimeoutSec <= 0 {
		c.Ingest.TimeoutSec = 30
	}
	if c.Sources.OpenData.BaseURL == "" {
		c.Sources.OpenData.BaseURL = "https://data.cityofchicago.org"
	}
	if c.Sources.OpenData.RequestsPerSecond <= 0 {
		c.Sources.OpenData.RequestsPerSecond = 2
	}
	if c.Sources.Clerk.BaseURL == "" {
		c.Sources.Clerk.BaseURL = "https://api.chicityclerkelms.chicago.gov"
	}
	if c.Sources.Clerk.RequestsPerSecond <= 0 {
		c.Sources.Clerk.RequestsPerSecond = 2
	}
	if c.Sources.Clerk.RecentLimit <= 0 {
		c.Sources.Clerk.RecentLimit = 100
	}
	if c.FetchCache.Driver == "" {
		c.FetchCache.Driver = CacheDriverNone
	}
	if c.FetchCache.TTLSec <= 0 {
		c.FetchCache.TTLSec = 900
	}
	if c.FetchCache.KeyPrefix == "" {
		c.FetchCache.KeyPrefix = "civicdex:"
	}
	if c.FetchCache.ReadinessTimeout <= 0 {
		c.FetchCache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Logging.Level != "" {
		if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	if c.Ingest.RefreshIntervalSec < 0 {
		return fmt.Errorf("ingest.refresh_interval_sec must be >= 0, got %d", c.Ingest.RefreshIntervalSec)
	}
	if !c.Sources.OpenData.Enabled && !c.Sources.Clerk.Enabled {
		return fmt.Errorf("at least one of sources.open_data or sources.clerk must be enabled")
	}
	for cat, limit := range c.Sources.Clerk.CategoryLimits {
		if limit < 0 {
			return fmt.Errorf("sources.clerk.category_limits[%q] must be >= 0, got %d", cat, limit)
		}
	}
	switch c.FetchCache.Driver {
	case CacheDriverNone, CacheDriverMemory:
	case CacheDriverRedis, CacheDriverValkey:
		if len(c.FetchCache.Addrs) == 0 {
			return fmt.Errorf("fetch_cache.addrs is required for driver %q", c.FetchCache.Driver)
		}
	default:
		return fmt.Errorf(
			"fetch_cache.driver must be one of none, memory, redis, valkey, got %q", c.FetchCache.Driver,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
