// Package config loads tasklist settings. Sources apply in order: defaults,
// TOML file, environment, then command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "tasklist.toml"

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type Config struct {
	Addr    string `toml:"addr"`
	Storage string `toml:"storage"`
	DBPath  string `toml:"db_path"`
	Key     string `toml:"key"`

	Log       LogConfig       `toml:"log"`
	Auth      AuthConfig      `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Tracing   TracingConfig   `toml:"tracing"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // json or text
	File   string `toml:"file"`   // tui mode only; defaults next to the database
}

type AuthConfig struct {
	Mode        string `toml:"mode"` // none, apikey, bearer
	APIKey      string `toml:"api_key"`
	BearerToken string `toml:"bearer_token"`
}

type RateLimitConfig struct {
	RPS   float64 `toml:"rps"`
	Burst int     `toml:"burst"`
}

type TracingConfig struct {
	Exporter    string `toml:"exporter"` // none, stdout, otlp
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"service_name"`
}

func Default() *Config {
	return &Config{
		Addr:    "127.0.0.1:8080",
		Storage: StorageSQLite,
		DBPath:  defaultDBPath(),
		Key:     "todos",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{Mode: "none"},
		RateLimit: RateLimitConfig{
			RPS:   0,
			Burst: 10,
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "tasklist",
		},
	}
}

func defaultDBPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tasklist", "tasklist.db")
	}
	return filepath.Join(".tasklist", "tasklist.db")
}

// Load builds the config from defaults, the TOML file at path (or
// tasklist.toml in the working directory when path is empty and the file
// exists) and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	file := path
	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}
	if file != "" {
		if _, err := toml.DecodeFile(file, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", file, err)
		}
	}

	if err := ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from environment variables read through getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	str("TASKLIST_ADDR", &cfg.Addr)
	str("TASKLIST_STORAGE", &cfg.Storage)
	str("TASKLIST_DB", &cfg.DBPath)
	str("TASKLIST_KEY", &cfg.Key)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("TASKLIST_LOG_FILE", &cfg.Log.File)
	str("TASKLIST_AUTH_MODE", &cfg.Auth.Mode)
	str("TASKLIST_API_KEY", &cfg.Auth.APIKey)
	str("TASKLIST_BEARER_TOKEN", &cfg.Auth.BearerToken)
	str("TASKLIST_TRACING", &cfg.Tracing.Exporter)
	str("TASKLIST_OTLP_ENDPOINT", &cfg.Tracing.Endpoint)

	if v := strings.TrimSpace(getenv("TASKLIST_RATE_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TASKLIST_RATE_RPS: %w", err)
		}
		cfg.RateLimit.RPS = f
	}
	if v := strings.TrimSpace(getenv("TASKLIST_RATE_BURST")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TASKLIST_RATE_BURST: %w", err)
		}
		cfg.RateLimit.Burst = n
	}
	return nil
}

// Validate checks enumerated settings and required pairs.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage {
	case StorageSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("db_path required for sqlite storage"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("storage must be sqlite or memory, got %q", c.Storage))
	}
	if c.Key == "" {
		errs = append(errs, errors.New("key required"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	switch c.Auth.Mode {
	case "", "none":
	case "apikey":
		if c.Auth.APIKey == "" {
			errs = append(errs, errors.New("auth.api_key required for apikey mode"))
		}
	case "bearer":
		if c.Auth.BearerToken == "" {
			errs = append(errs, errors.New("auth.bearer_token required for bearer mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be none, apikey or bearer, got %q", c.Auth.Mode))
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter must be none, stdout or otlp, got %q", c.Tracing.Exporter))
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("rate_limit.rps must not be negative"))
	}
	return errors.Join(errs...)
}

// LogFilePath is where the TUI writes logs.
func (c *Config) LogFilePath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	if c.Storage == StorageSQLite && c.DBPath != "" {
		return filepath.Join(filepath.Dir(c.DBPath), "tasklist.log")
	}
	return filepath.Join(os.TempDir(), "tasklist.log")
}
