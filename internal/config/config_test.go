package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockcast.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STOCKCAST_BASE_URL", "STOCKCAST_EXPORT_DIR", "SQLITE_PATH", "LOG_LEVEL",
		"ALPACA_API_KEY", "ALPACA_API_SECRET", "ALPACA_BASE_URL",
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
	} {
		if v, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Service.BaseURL != "http://localhost:5000" {
		t.Errorf("Service.BaseURL = %q, want %q", cfg.Service.BaseURL, "http://localhost:5000")
	}
	if cfg.UI.Debounce != 300*time.Millisecond {
		t.Errorf("UI.Debounce = %v, want 300ms", cfg.UI.Debounce)
	}
	if cfg.UI.DefaultHorizon != 30 {
		t.Errorf("UI.DefaultHorizon = %d, want 30", cfg.UI.DefaultHorizon)
	}
	if len(cfg.UI.Horizons) != 6 || cfg.UI.Horizons[5] != 180 {
		t.Errorf("UI.Horizons = %v, want [7 15 30 60 90 180]", cfg.UI.Horizons)
	}
	if cfg.Suggest.CacheTTL != 5*time.Minute || cfg.Suggest.MaxPerMinute != 120 {
		t.Errorf("Suggest = %+v", cfg.Suggest)
	}
	if cfg.Watch.Cron != "*/15 * * * *" {
		t.Errorf("Watch.Cron = %q", cfg.Watch.Cron)
	}
	if cfg.Alpaca.Enabled() {
		t.Error("expected Alpaca disabled without credentials")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
service:
  base_url: "http://predict.internal:8000"
  timeout: 15s
ui:
  debounce: 150ms
  horizons: [7, 30]
suggest:
  max_per_minute: 0
storage:
  sqlite_path: "/tmp/stockcast/history.db"
logging:
  level: "debug"
  format: "text"
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
watch:
  cron: "0 9 * * 1-5"
  tickers:
    - ticker: "AAPL"
      horizon: 90
    - ticker: "MSFT"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Service.BaseURL != "http://predict.internal:8000" {
		t.Errorf("Service.BaseURL = %q", cfg.Service.BaseURL)
	}
	if cfg.Service.Timeout != 15*time.Second {
		t.Errorf("Service.Timeout = %v, want 15s", cfg.Service.Timeout)
	}
	if cfg.UI.Debounce != 150*time.Millisecond {
		t.Errorf("UI.Debounce = %v, want 150ms", cfg.UI.Debounce)
	}
	if len(cfg.UI.Horizons) != 2 {
		t.Errorf("UI.Horizons = %v, want [7 30]", cfg.UI.Horizons)
	}
	if cfg.Suggest.MaxPerMinute != 0 {
		t.Errorf("Suggest.MaxPerMinute = %d, want explicit 0", cfg.Suggest.MaxPerMinute)
	}
	if cfg.Storage.SQLitePath != "/tmp/stockcast/history.db" {
		t.Errorf("Storage.SQLitePath = %q", cfg.Storage.SQLitePath)
	}
	if cfg.Storage.ExportDir != "data/exports" {
		t.Errorf("Storage.ExportDir = %q, want default", cfg.Storage.ExportDir)
	}
	if !cfg.Alpaca.Enabled() {
		t.Error("expected Alpaca enabled")
	}
	if len(cfg.Watch.Tickers) != 2 {
		t.Fatalf("Watch.Tickers = %v", cfg.Watch.Tickers)
	}
	if cfg.Watch.Tickers[0].Horizon != 90 || cfg.Watch.Tickers[1].Horizon != 30 {
		t.Errorf("horizons = %d,%d; want 90,30", cfg.Watch.Tickers[0].Horizon, cfg.Watch.Tickers[1].Horizon)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
service:
  base_url: "http://yaml:5000"
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
`)

	t.Setenv("STOCKCAST_BASE_URL", "http://env:5000")
	t.Setenv("ALPACA_API_KEY", "env-key")
	t.Setenv("APCA_API_SECRET_KEY", "apca-secret")
	t.Setenv("SQLITE_PATH", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Service.BaseURL != "http://env:5000" {
		t.Errorf("Service.BaseURL = %q, want env override", cfg.Service.BaseURL)
	}
	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	if cfg.Alpaca.APISecret != "apca-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q", cfg.Alpaca.APISecret, "apca-secret")
	}
	if cfg.Storage.SQLitePath != "" {
		t.Errorf("Storage.SQLitePath = %q, want empty to disable history", cfg.Storage.SQLitePath)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"bad level":      "logging:\n  level: loud\n",
		"bad url":        "service:\n  base_url: \"not a url\"\n",
		"empty ticker":   "watch:\n  tickers:\n    - horizon: 7\n",
		"zero horizons":  "ui:\n  horizons: [0]\n",
		"malformed yaml": "service: [",
	}
	for name, content := range tests {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestPath(t *testing.T) {
	t.Setenv("STOCKCAST_CONFIG", "")
	if Path() != DefaultPath {
		t.Errorf("Path() = %q, want %q", Path(), DefaultPath)
	}
	t.Setenv("STOCKCAST_CONFIG", "/etc/stockcast.yaml")
	if !strings.HasSuffix(Path(), "/etc/stockcast.yaml") {
		t.Errorf("Path() = %q", Path())
	}
}
