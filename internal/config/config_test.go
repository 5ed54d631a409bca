package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Sources: SourcesConfig{OpenData: OpenDataConfig{Enabled: true}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_NoSourcesEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.OpenData.Enabled = false

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when every source is disabled")
	}
}

func TestValidate_NegativeRefreshInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Ingest.RefreshIntervalSec = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative refresh interval")
	}
}

func TestValidate_NegativeCategoryLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.Clerk.CategoryLimits = map[string]int{"PARKING": -1}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative category limit")
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "WARN"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Logging.Level = "chatty"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestValidate_FetchCacheDriver(t *testing.T) {
	tests := []struct {
		driver  string
		addrs   []string
		wantErr bool
	}{
		{CacheDriverNone, nil, false},
		{CacheDriverMemory, nil, false},
		{CacheDriverRedis, []string{"localhost:6379"}, false},
		{CacheDriverValkey, []string{"localhost:6379"}, false},
		{CacheDriverValkey, nil, true},
		{"memcached", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.FetchCache.Driver = tt.driver
			cfg.FetchCache.Addrs = tt.addrs

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Search.PerCategoryTarget != 5 {
		t.Errorf("expected PerCategoryTarget=5, got %d", cfg.Search.PerCategoryTarget)
	}
	if cfg.Chat.MaxContextDocs != 3 {
		t.Errorf("expected MaxContextDocs=3, got %d", cfg.Chat.MaxContextDocs)
	}
	if cfg.Chat.HistoryLimit != 1000 {
		t.Errorf("expected HistoryLimit=1000, got %d", cfg.Chat.HistoryLimit)
	}
	if cfg.Ingest.LimitPerSource != 50 {
		t.Errorf("expected LimitPerSource=50, got %d", cfg.Ingest.LimitPerSource)
	}
	if cfg.Sources.Clerk.RecentLimit != 100 {
		t.Errorf("expected RecentLimit=100, got %d", cfg.Sources.Clerk.RecentLimit)
	}
	if cfg.FetchCache.Driver != CacheDriverNone {
		t.Errorf("expected Driver=none, got %q", cfg.FetchCache.Driver)
	}
	if cfg.FetchCache.KeyPrefix != "civicdex:" {
		t.Errorf("expected KeyPrefix='civicdex:', got %q", cfg.FetchCache.KeyPrefix)
	}
	if cfg.Logging.MaxSizeMB != 0 {
		t.Errorf("rotation defaults should only apply with a log file, got MaxSizeMB=%d", cfg.Logging.MaxSizeMB)
	}
}

func TestApplyDefaults_LogRotation(t *testing.T) {
	cfg := Config{Logging: LoggingConfig{File: "/tmp/civicdex.log", MaxBackups: 7}}
	cfg.ApplyDefaults()

	if cfg.Logging.MaxSizeMB != 100 {
		t.Errorf("expected MaxSizeMB=100, got %d", cfg.Logging.MaxSizeMB)
	}
	if cfg.Logging.MaxBackups != 7 {
		t.Errorf("expected MaxBackups=7, got %d", cfg.Logging.MaxBackups)
	}
	if cfg.Logging.MaxAgeDays != 28 {
		t.Errorf("expected MaxAgeDays=28, got %d", cfg.Logging.MaxAgeDays)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Chat:       ChatConfig{MaxContextDocs: 7},
		FetchCache: FetchCacheConfig{KeyPrefix: "custom:", Driver: CacheDriverMemory},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Chat.MaxContextDocs != 7 {
		t.Errorf("expected MaxContextDocs=7, got %d", cfg.Chat.MaxContextDocs)
	}
	if cfg.FetchCache.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.FetchCache.KeyPrefix)
	}
	if cfg.FetchCache.Driver != CacheDriverMemory {
		t.Errorf("expected Driver=memory, got %q", cfg.FetchCache.Driver)
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("CIVICDEX_TEST_PORT", "9091")
	t.Setenv("CIVICDEX_TEST_TOKEN", "")

	path := writeConfig(t, `
http:
  port: ${CIVICDEX_TEST_PORT}
sources:
  open_data:
    enabled: true
    app_token: ${CIVICDEX_TEST_TOKEN:-fallback-token}
    datasets: [building_permits]
  clerk:
    enabled: false
    category_limits:
      PARKING: 10
fetch_cache:
  driver: ${CIVICDEX_TEST_UNSET_DRIVER:-memory}
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9091 {
		t.Errorf("expected port 9091, got %d", cfg.HTTP.Port)
	}
	if cfg.Sources.OpenData.AppToken != "fallback-token" {
		t.Errorf("expected fallback token, got %q", cfg.Sources.OpenData.AppToken)
	}
	if len(cfg.Sources.OpenData.Datasets) != 1 || cfg.Sources.OpenData.Datasets[0] != "building_permits" {
		t.Errorf("unexpected datasets: %v", cfg.Sources.OpenData.Datasets)
	}
	if cfg.Sources.Clerk.CategoryLimits["PARKING"] != 10 {
		t.Errorf("unexpected category limits: %v", cfg.Sources.Clerk.CategoryLimits)
	}
	if cfg.FetchCache.Driver != CacheDriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.FetchCache.Driver)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := writeConfig(t, "http:\n  port: 8080\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation error when no source is enabled")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Sources.OpenData.Enabled || !cfg.Sources.Clerk.Enabled {
		t.Error("local config should enable both sources")
	}
	if len(cfg.Sources.Clerk.CategoryLimits) != 5 {
		t.Errorf("expected 5 clerk categories, got %d", len(cfg.Sources.Clerk.CategoryLimits))
	}
}
