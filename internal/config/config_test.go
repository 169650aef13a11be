package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearKeyEnv blanks every variable that feeds the API key.
func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIKey, "")
	t.Setenv("OILPRICE_API_KEY", "")
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearKeyEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.API.BaseURL != "https://api.oilpriceapi.com" {
		t.Errorf("API.BaseURL: got %q", cfg.API.BaseURL)
	}
	if cfg.API.Key != "" {
		t.Errorf("API.Key: got %q, want empty", cfg.API.Key)
	}
	if cfg.API.Timeout() != 30*time.Second {
		t.Errorf("API.Timeout: got %v, want 30s", cfg.API.Timeout())
	}
	if cfg.API.RateLimit != 10 {
		t.Errorf("API.RateLimit: got %d, want 10", cfg.API.RateLimit)
	}
	if cfg.API.CacheDuration() != 5*time.Minute {
		t.Errorf("API.CacheDuration: got %v, want 5m", cfg.API.CacheDuration())
	}

	if cfg.Historical.MaxPages != 1000 {
		t.Errorf("Historical.MaxPages: got %d, want 1000", cfg.Historical.MaxPages)
	}
	if cfg.Historical.Concurrency != 4 {
		t.Errorf("Historical.Concurrency: got %d, want 4", cfg.Historical.Concurrency)
	}
	endpoints := map[string]string{
		cfg.Historical.Endpoints.Day:   "/v1/prices/past_day",
		cfg.Historical.Endpoints.Week:  "/v1/prices/past_week",
		cfg.Historical.Endpoints.Month: "/v1/prices/past_month",
		cfg.Historical.Endpoints.Year:  "/v1/prices/past_year",
	}
	for got, want := range endpoints {
		if got != want {
			t.Errorf("endpoint: got %q, want %q", got, want)
		}
	}

	if cfg.Export.Format != "csv" {
		t.Errorf("Export.Format: got %q, want csv", cfg.Export.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("OILPRICE_API_BASE_URL", "http://localhost:9999")
	t.Setenv("OILPRICE_HISTORICAL_MAX_PAGES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:9999" {
		t.Errorf("API.BaseURL: got %q", cfg.API.BaseURL)
	}
	if cfg.Historical.MaxPages != 5 {
		t.Errorf("Historical.MaxPages: got %d, want 5", cfg.Historical.MaxPages)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearKeyEnv(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
api:
  base_url: "https://staging.oilpriceapi.com"
  key: "file_key_1234567890"
  timeout_sec: 45
historical:
  max_pages: 50
  endpoints:
    year: "/v2/prices/past_year"
export:
  format: "parquet"
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.API.BaseURL != "https://staging.oilpriceapi.com" {
		t.Errorf("API.BaseURL: got %q", cfg.API.BaseURL)
	}
	if cfg.API.Key != "file_key_1234567890" {
		t.Errorf("API.Key: got %q", cfg.API.Key)
	}
	if cfg.API.Timeout() != 45*time.Second {
		t.Errorf("API.Timeout: got %v", cfg.API.Timeout())
	}
	if cfg.Historical.MaxPages != 50 {
		t.Errorf("Historical.MaxPages: got %d, want 50", cfg.Historical.MaxPages)
	}
	if cfg.Historical.Endpoints.Year != "/v2/prices/past_year" {
		t.Errorf("Endpoints.Year: got %q", cfg.Historical.Endpoints.Year)
	}
	// Unset endpoints keep their defaults.
	if cfg.Historical.Endpoints.Day != "/v1/prices/past_day" {
		t.Errorf("Endpoints.Day: got %q", cfg.Historical.Endpoints.Day)
	}
	if cfg.Export.Format != "parquet" {
		t.Errorf("Export.Format: got %q", cfg.Export.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("OILPRICE_API_KEY", "prefixed-key")
	t.Setenv(EnvAPIKey, "sdk-key-123456")

	cfg := &Config{}
	overrideFromEnv(cfg)

	// OILPRICEAPI_KEY wins over the prefixed variable.
	if cfg.API.Key != "sdk-key-123456" {
		t.Errorf("API.Key: got %q", cfg.API.Key)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{API: APIConfig{Key: "from-config"}}
	overrideFromEnv(cfg)

	if cfg.API.Key != "from-config" {
		t.Errorf("API.Key should stay as 'from-config' when env is unset, got %q", cfg.API.Key)
	}
}

// ── loadDotEnv ──

func TestLoadDotEnv(t *testing.T) {
	clearKeyEnv(t)
	os.Unsetenv(EnvAPIKey)

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OILPRICEAPI_KEY=dotenv-key-abcdef\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv(EnvAPIKey); got != "dotenv-key-abcdef" {
		t.Errorf("OILPRICEAPI_KEY: got %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing .env should not fail: %v", err)
	}
}

// ── maskKey ──

func TestMaskKeyShort(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"a", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMaskKeyLong(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123456789", "123...789"},
		{"opa_abcdef1234567890xyz", "opa...xyz"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysEmpty(t *testing.T) {
	clearKeyEnv(t)

	statuses := CheckAPIKeys(&Config{})
	if len(statuses) != 1 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 1", len(statuses))
	}
	if statuses[0].IsSet {
		t.Error("key should not be set")
	}
	if statuses[0].Source != KeySourceNone {
		t.Errorf("source: got %q, want %q", statuses[0].Source, KeySourceNone)
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{API: APIConfig{Key: "cfg-very-long-key-value"}}
	s := CheckAPIKeys(cfg)[0]
	if !s.IsSet {
		t.Error("key should be set")
	}
	if s.Source != KeySourceConfig {
		t.Errorf("Source: got %q, want %q", s.Source, KeySourceConfig)
	}
	if s.Masked != "cfg...lue" {
		t.Errorf("Masked: got %q, want %q", s.Masked, "cfg...lue")
	}
}

func TestCheckAPIKeysFromEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv(EnvAPIKey, "env-key-for-testing")

	cfg := &Config{API: APIConfig{Key: "env-key-for-testing"}}
	if s := CheckAPIKeys(cfg)[0]; s.Source != KeySourceEnv {
		t.Errorf("Source: got %q, want %q", s.Source, KeySourceEnv)
	}
}

// ── Default / Save ──

func TestDefaultIgnoresEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv("OILPRICE_EXPORT_FORMAT", "parquet")

	cfg := Default()
	if cfg.API.Key != "" {
		t.Errorf("API.Key: got %q, want empty", cfg.API.Key)
	}
	if cfg.Export.Format != "csv" {
		t.Errorf("Export.Format: got %q, want csv", cfg.Export.Format)
	}
	if cfg.Schedule.Cron != "0 0 6 * * *" {
		t.Errorf("Schedule.Cron: got %q", cfg.Schedule.Cron)
	}
	if cfg.Schedule.Days != 7 {
		t.Errorf("Schedule.Days: got %d, want 7", cfg.Schedule.Days)
	}
	if len(cfg.Schedule.Commodities) != 2 {
		t.Errorf("Schedule.Commodities: got %v", cfg.Schedule.Commodities)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr: got %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Server.TimeoutSec != 30 {
		t.Errorf("Server.TimeoutSec: got %d, want 30", cfg.Server.TimeoutSec)
	}
}

func TestSaveRoundTripsThroughLoadFromFile(t *testing.T) {
	clearKeyEnv(t)

	cfg := Default()
	cfg.Historical.MaxPages = 12
	cfg.Export.Format = "sqlite"
	cfg.Schedule.Commodities = []string{"NATURAL_GAS_USD"}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	got, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if got.Historical.MaxPages != 12 {
		t.Errorf("Historical.MaxPages: got %d, want 12", got.Historical.MaxPages)
	}
	if got.Export.Format != "sqlite" {
		t.Errorf("Export.Format: got %q, want sqlite", got.Export.Format)
	}
	if len(got.Schedule.Commodities) != 1 || got.Schedule.Commodities[0] != "NATURAL_GAS_USD" {
		t.Errorf("Schedule.Commodities: got %v", got.Schedule.Commodities)
	}
	if got.Historical.Endpoints.Year != "/v1/prices/past_year" {
		t.Errorf("Endpoints.Year: got %q", got.Historical.Endpoints.Year)
	}
}
