package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when STOCKCAST_CONFIG is unset.
const DefaultPath = "config/stockcast.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockcast tools.
type Config struct {
	Service Service `yaml:"service"`
	UI      UI      `yaml:"ui"`
	Suggest Suggest `yaml:"suggest"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
	Alpaca  Alpaca  `yaml:"alpaca"`
	Watch   Watch   `yaml:"watch"`
}

// Service locates the suggestion and prediction endpoints.
type Service struct {
	BaseURL   string        `yaml:"base_url" default:"http://localhost:5000" validate:"required,url"`
	Timeout   time.Duration `yaml:"timeout" default:"60s" validate:"gt=0"`
	UserAgent string        `yaml:"user_agent" default:"stockcast/0.1"`
}

// UI configures the interactive client.
type UI struct {
	Debounce       time.Duration `yaml:"debounce" default:"300ms" validate:"gt=0"`
	DefaultHorizon int           `yaml:"default_horizon" default:"30" validate:"gt=0"`
	Horizons       []int         `yaml:"horizons" default:"[7,15,30,60,90,180]" validate:"min=1,dive,gt=0"`
}

// Suggest tunes autocomplete lookups.
type Suggest struct {
	CacheTTL     time.Duration `yaml:"cache_ttl" default:"5m" validate:"gte=0"`
	MaxPerMinute int           `yaml:"max_per_minute" default:"120" validate:"gte=0"`
	Timeout      time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
}

// Storage holds paths for history and exports. An empty SQLitePath disables
// history.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path" default:"data/stockcast.db"`
	ExportDir  string `yaml:"export_dir" default:"data/exports"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json text"`
	File   string `yaml:"file" default:"logs/stockcast-client.log"`
}

// Alpaca holds credentials for the watchlist integration. Without a key the
// integration is off.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url" default:"https://paper-api.alpaca.markets" validate:"omitempty,url"`
	Watchlist string `yaml:"watchlist" default:"stockcast"`
}

// Watch configures the scheduled watcher.
type Watch struct {
	Cron    string        `yaml:"cron" default:"*/15 * * * *"`
	Listen  string        `yaml:"listen" default:":8090"`
	Tickers []WatchTicker `yaml:"tickers" validate:"dive"`
}

// WatchTicker is one forecast the watcher refreshes. A zero horizon uses
// ui.default_horizon.
type WatchTicker struct {
	Ticker  string `yaml:"ticker" validate:"required"`
	Horizon int    `yaml:"horizon" validate:"gte=0"`
}

// Enabled reports whether Alpaca credentials are configured.
func (a Alpaca) Enabled() bool { return a.APIKey != "" && a.APISecret != "" }

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Path returns $STOCKCAST_CONFIG or DefaultPath.
func Path() string {
	if v := os.Getenv("STOCKCAST_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads the YAML configuration file at path over the defaults, applies
// .env and environment overrides, and validates the result. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional and never overrides the environment

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	for i := range cfg.Watch.Tickers {
		if cfg.Watch.Tickers[i].Horizon == 0 {
			cfg.Watch.Tickers[i].Horizon = cfg.UI.DefaultHorizon
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKCAST_BASE_URL"); v != "" {
		cfg.Service.BaseURL = v
	}
	if v := os.Getenv("STOCKCAST_EXPORT_DIR"); v != "" {
		cfg.Storage.ExportDir = v
	}
	if v, ok := os.LookupEnv("SQLITE_PATH"); ok {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	// Standard Alpaca env vars (highest priority, canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
