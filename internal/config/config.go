package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/Nuvio/internal/utils"
)

// Config holds all server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Auth      AuthConfig      `yaml:"auth"`
	Assistant AssistantConfig `yaml:"assistant"`
	Log       LogConfig       `yaml:"log"`
	Insights  InsightsConfig  `yaml:"insights"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	StaticDir         string        `yaml:"static_dir"`
}

// StoreConfig selects the record store. Engine is "memory" or "sqlite".
type StoreConfig struct {
	Engine        string `yaml:"engine"`
	SQLitePath    string `yaml:"sqlite_path"`
	SQLiteDriver  string `yaml:"sqlite_driver"`
	SnapshotPath  string `yaml:"snapshot_path"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// AssistantConfig configures the OpenAI-compatible chat model. An empty APIKey
// selects the offline rule-based replier.
type AssistantConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	QPS          int           `yaml:"qps"`
	RPM          int           `yaml:"rpm"`
	MaxRetries   int           `yaml:"max_retries"`
	Timeout      time.Duration `yaml:"timeout"`
	HistoryTurns int           `yaml:"history_turns"`

	// FallbackOnError answers with the rule-based replier when the model fails.
	FallbackOnError bool `yaml:"fallback_on_error"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type InsightsConfig struct {
	WindowDays int    `yaml:"window_days"`
	Timezone   string `yaml:"timezone"`
}

// ErrInvalidConfig is returned when config validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

const devJWTSecret = "nuvio-dev-secret"

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Engine:       "memory",
			SQLitePath:   "data/nuvio.db",
			SQLiteDriver: "sqlite3",
		},
		Auth: AuthConfig{
			JWTSecret: devJWTSecret,
			TokenTTL:  30 * 24 * time.Hour,
		},
		Assistant: AssistantConfig{
			BaseURL:         "https://api.openai.com/v1",
			Model:           "gpt-4o-mini",
			QPS:             1,
			RPM:             30,
			MaxRetries:      3,
			Timeout:         30 * time.Second,
			HistoryTurns:    10,
			FallbackOnError: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Insights: InsightsConfig{
			WindowDays: 7,
			Timezone:   "UTC",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	ApplyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from NUVIO_* and OPENAI_* variables when set.
func ApplyEnv(cfg *Config) {
	cfg.Server.Addr = utils.SafeEnv("NUVIO_ADDR", cfg.Server.Addr)
	cfg.Server.AllowedOrigins = utils.SafeEnvList("NUVIO_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Store.Engine = utils.SafeEnv("NUVIO_STORE", cfg.Store.Engine)
	cfg.Store.SQLitePath = utils.SafeEnv("NUVIO_SQLITE_PATH", cfg.Store.SQLitePath)
	cfg.Store.SQLiteDriver = utils.SafeEnv("NUVIO_SQLITE_DRIVER", cfg.Store.SQLiteDriver)
	cfg.Store.SnapshotPath = utils.SafeEnv("NUVIO_SNAPSHOT_PATH", cfg.Store.SnapshotPath)
	cfg.Auth.JWTSecret = utils.SafeEnv("NUVIO_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Log.Level = utils.SafeEnv("NUVIO_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = utils.SafeEnv("NUVIO_LOG_FILE", cfg.Log.File)
	cfg.Assistant.APIKey = utils.SafeEnv("OPENAI_API_KEY", cfg.Assistant.APIKey)
	cfg.Assistant.BaseURL = utils.SafeEnv("OPENAI_BASE_URL", cfg.Assistant.BaseURL)
	cfg.Assistant.Model = utils.SafeEnv("OPENAI_MODEL", cfg.Assistant.Model)
}

func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	switch cfg.Store.Engine {
	case "memory":
	case "sqlite":
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("%w: store.sqlite_path is required for the sqlite engine", ErrInvalidConfig)
		}
		if cfg.Store.SQLiteDriver != "sqlite3" && cfg.Store.SQLiteDriver != "sqlite" {
			return fmt.Errorf("%w: store.sqlite_driver must be sqlite3 or sqlite, got %q",
				ErrInvalidConfig, cfg.Store.SQLiteDriver)
		}
	default:
		return fmt.Errorf("%w: store.engine must be memory or sqlite, got %q", ErrInvalidConfig, cfg.Store.Engine)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret is required", ErrInvalidConfig)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: auth.token_ttl must be positive, got %s", ErrInvalidConfig, cfg.Auth.TokenTTL)
	}
	if cfg.Assistant.QPS < 0 || cfg.Assistant.RPM < 0 || cfg.Assistant.MaxRetries < 0 {
		return fmt.Errorf("%w: assistant qps, rpm and max_retries must be non-negative", ErrInvalidConfig)
	}
	if cfg.Assistant.HistoryTurns <= 0 {
		return fmt.Errorf("%w: assistant.history_turns must be positive, got %d",
			ErrInvalidConfig, cfg.Assistant.HistoryTurns)
	}
	if cfg.Insights.WindowDays < 1 || cfg.Insights.WindowDays > 366 {
		return fmt.Errorf("%w: insights.window_days must be between 1 and 366, got %d",
			ErrInvalidConfig, cfg.Insights.WindowDays)
	}
	if _, err := time.LoadLocation(cfg.Insights.Timezone); err != nil {
		return fmt.Errorf("%w: insights.timezone %q: %v", ErrInvalidConfig, cfg.Insights.Timezone, err)
	}
	return nil
}

// UsesDevSecret reports whether the built-in development JWT secret is active.
func (c *Config) UsesDevSecret() bool {
	return c.Auth.JWTSecret == devJWTSecret
}

// Location resolves the insights timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Insights.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
