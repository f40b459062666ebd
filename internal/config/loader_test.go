package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Retention.DefaultDays != 30 {
		t.Fatalf("expected default retention 30, got %d", cfg.Retention.DefaultDays)
	}
	if cfg.Retention.SweepInterval != 24*time.Hour {
		t.Fatalf("expected default sweep interval 24h, got %v", cfg.Retention.SweepInterval)
	}
}

func TestLoadFromYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	yaml := `
server:
  port: "9090"
retention:
  default_days: 7
  sweep_interval: 1h
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090 from yaml, got %q", cfg.Server.Port)
	}
	if cfg.Retention.DefaultDays != 7 {
		t.Fatalf("expected retention 7 from yaml, got %d", cfg.Retention.DefaultDays)
	}
	// Unset keys keep their defaults.
	if cfg.Postgres.MaxConns != 15 {
		t.Fatalf("expected default max_conns 15, got %d", cfg.Postgres.MaxConns)
	}
}

func TestLoadFromEnvWinsOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("LEDGER_PORT", "7070")
	t.Setenv("LEDGER_RETENTION_DEFAULT_DAYS", "14")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("env must win over yaml, got %q", cfg.Server.Port)
	}
	if cfg.Retention.DefaultDays != 14 {
		t.Fatalf("expected retention 14 from env, got %d", cfg.Retention.DefaultDays)
	}
}

func TestLoadFromValidation(t *testing.T) {
	t.Setenv("LEDGER_SWEEP_INTERVAL", "10s")

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected validation error for sub-minute sweep interval")
	}
}

func TestLoadFromBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error for malformed yaml")
	}
}
