package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8080" {
		t.Fatalf("default addr should stay on loopback, got %q", cfg.Addr)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasklist.toml")
	content := `
addr = ":9090"
storage = "memory"

[log]
level = "debug"
format = "text"

[rate_limit]
rps = 5.0
burst = 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TASKLIST_ADDR", ":7070")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("env should override file addr, got %q", cfg.Addr)
	}
	if cfg.Storage != StorageMemory {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
	if cfg.RateLimit.RPS != 5 || cfg.RateLimit.Burst != 2 {
		t.Errorf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if cfg.Key != "todos" {
		t.Errorf("unset key should keep default, got %q", cfg.Key)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TASKLIST_RATE_RPS":     "2.5",
		"TASKLIST_AUTH_MODE":    "bearer",
		"TASKLIST_BEARER_TOKEN": "tok",
	}
	cfg := Default()
	if err := ApplyEnv(cfg, func(k string) string { return env[k] }); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.RateLimit.RPS != 2.5 || cfg.Auth.Mode != "bearer" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	bad := Default()
	err := ApplyEnv(bad, func(k string) string {
		if k == "TASKLIST_RATE_BURST" {
			return "lots"
		}
		return ""
	})
	if err == nil || !strings.Contains(err.Error(), "TASKLIST_RATE_BURST") {
		t.Fatalf("expected burst parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage = "redis"
	cfg.Auth.Mode = "apikey"
	cfg.Tracing.Exporter = "zipkin"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"storage", "api_key", "tracing.exporter"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestLogFilePath(t *testing.T) {
	cfg := Default()
	cfg.DBPath = filepath.Join("data", "tasklist.db")
	if got := cfg.LogFilePath(); got != filepath.Join("data", "tasklist.log") {
		t.Fatalf("unexpected log path %q", got)
	}
	cfg.Log.File = "custom.log"
	if got := cfg.LogFilePath(); got != "custom.log" {
		t.Fatalf("explicit log file ignored: %q", got)
	}
}
