// Package config handles configuration loading for the oilprice client.
// It supports YAML config files, a local .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration.
type Config struct {
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Historical HistoricalConfig `mapstructure:"historical" yaml:"historical"`
	Export     ExportConfig     `mapstructure:"export"     yaml:"export"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"   yaml:"schedule"`
	Server     ServerConfig     `mapstructure:"server"     yaml:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// APIConfig holds connection settings for the OilPriceAPI service.
type APIConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	Key        string `mapstructure:"key"         yaml:"key"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"` // default per-request timeout
	RateLimit  int    `mapstructure:"rate_limit"  yaml:"rate_limit"`  // requests per second, client side
	CacheTTL   int    `mapstructure:"cache_ttl"   yaml:"cache_ttl"`   // seconds
	UserAgent  string `mapstructure:"user_agent"  yaml:"user_agent"`
}

// HistoricalConfig holds settings of the historical-data engine.
type HistoricalConfig struct {
	MaxPages    int             `mapstructure:"max_pages"   yaml:"max_pages"`
	Concurrency int             `mapstructure:"concurrency" yaml:"concurrency"`
	Endpoints   EndpointsConfig `mapstructure:"endpoints"   yaml:"endpoints"`
}

// EndpointsConfig holds the route of each historical window.
type EndpointsConfig struct {
	Day   string `mapstructure:"day"   yaml:"day"`
	Week  string `mapstructure:"week"  yaml:"week"`
	Month string `mapstructure:"month" yaml:"month"`
	Year  string `mapstructure:"year"  yaml:"year"`
}

// ExportConfig holds defaults for writing fetched prices to disk.
type ExportConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // "csv", "json", "parquet" or "sqlite"
	Dir    string `mapstructure:"dir"    yaml:"dir"`
}

// ScheduleConfig holds settings of the periodic collector.
type ScheduleConfig struct {
	Cron        string   `mapstructure:"cron"        yaml:"cron"` // six-field spec, seconds first
	Days        int      `mapstructure:"days"        yaml:"days"` // trailing window fetched per run
	Commodities []string `mapstructure:"commodities" yaml:"commodities"`
}

// ServerConfig holds settings of the HTTP API server.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"         yaml:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	TimeoutSec  int      `mapstructure:"timeout_sec"  yaml:"timeout_sec"` // deadline of non-history routes
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Timeout returns the default per-request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CacheDuration returns the fetch cache TTL.
func (c APIConfig) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.oilprice/config.yaml (home directory)
//  3. /etc/oilprice/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
// Format: OILPRICE_<SECTION>_<KEY>, e.g., OILPRICE_API_BASE_URL
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".oilprice"))
	v.AddConfigPath("/etc/oilprice")

	// Config file is optional, defaults + env vars are enough
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

// Default returns the built-in defaults, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("error writing config file %s: %w", path, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("OILPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.oilpriceapi.com")
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("api.rate_limit", 10)
	v.SetDefault("api.cache_ttl", 300) // 5 minutes
	v.SetDefault("api.user_agent", "")

	v.SetDefault("historical.max_pages", 1000)
	v.SetDefault("historical.concurrency", 4)
	v.SetDefault("historical.endpoints.day", "/v1/prices/past_day")
	v.SetDefault("historical.endpoints.week", "/v1/prices/past_week")
	v.SetDefault("historical.endpoints.month", "/v1/prices/past_month")
	v.SetDefault("historical.endpoints.year", "/v1/prices/past_year")

	v.SetDefault("export.format", "csv")
	v.SetDefault("export.dir", "data")

	v.SetDefault("schedule.cron", "0 0 6 * * *") // daily at 06:00
	v.SetDefault("schedule.days", 7)
	v.SetDefault("schedule.commodities", []string{"WTI_USD", "BRENT_CRUDE_USD"})

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.timeout_sec", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads the API key from the environment.
// OILPRICEAPI_KEY is the variable documented for every OilPriceAPI SDK.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("OILPRICE_API_KEY"); key != "" {
		cfg.API.Key = key
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.API.Key = key
	}
}

// loadDotEnv loads KEY=VALUE pairs from path without overriding variables
// already present in the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
