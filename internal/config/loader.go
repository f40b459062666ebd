package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "ledger.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML unmarshals the file over cfg, so unset YAML keys keep their
// defaults. A missing file is fine; config can come entirely from env.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "LEDGER_PORT")
	setString(&cfg.Server.CORSOrigin, "LEDGER_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt(&cfg.Postgres.MaxConns, "LEDGER_PG_MAX_CONNS")
	setInt(&cfg.Postgres.MinConns, "LEDGER_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "LEDGER_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "LEDGER_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "LEDGER_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "LEDGER_LOG_LEVEL")
	setString(&cfg.Logging.Service, "LEDGER_LOG_SERVICE")
	setDuration(&cfg.Retention.SweepInterval, "LEDGER_SWEEP_INTERVAL")
	setInt(&cfg.Retention.DefaultDays, "LEDGER_RETENTION_DEFAULT_DAYS")
	setInt(&cfg.Cache.ArtifactMaxSizeMB, "LEDGER_CACHE_ARTIFACT_SIZE_MB")
	setDuration(&cfg.Cache.ArtifactTTL, "LEDGER_CACHE_ARTIFACT_TTL")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Retention.SweepInterval < time.Minute {
		return errors.New("retention.sweep_interval must be >= 1m")
	}
	if cfg.Retention.DefaultDays < 1 {
		return errors.New("retention.default_days must be >= 1")
	}
	return nil
}

// Overlay helpers: a set env var overrides the current value, an unset
// or malformed one leaves it alone. Malformed values are ignored rather
// than fatal so a bad override cannot keep the service from starting
// with its YAML/default value.

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt[T int | int32 | int64](dst *T, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return
	}
	*dst = T(n)
}

func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
