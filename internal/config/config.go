// Package config loads server settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for oprema. Environment variables always
// override YAML values. The JWT secret is only read from the environment.
type Config struct {
	DBPath   string `yaml:"db" env:"OPREMA_DB" env-default:"oprema.sqlite3"`
	Addr     string `yaml:"addr" env:"OPREMA_ADDR" env-default:":8080"`
	LogLevel string `yaml:"log_level" env:"OPREMA_LOG_LEVEL" env-default:"info"`
	LogFile  string `yaml:"log_file" env:"OPREMA_LOG_FILE" env-default:""`

	// Owner is the username of the account created on first run.
	Owner string `yaml:"owner" env:"OPREMA_OWNER" env-default:"Owner"`

	// JWTSecret signs access tokens. When empty a secret is generated once
	// and kept in the database settings table.
	JWTSecret string `yaml:"-" env:"OPREMA_JWT_SECRET"`

	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds HTTP server timeouts.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"OPREMA_READ_HEADER_TIMEOUT" env-default:"10s"`
	ReadTimeout       time.Duration `yaml:"read_timeout" env:"OPREMA_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout      time.Duration `yaml:"write_timeout" env:"OPREMA_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" env:"OPREMA_IDLE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"OPREMA_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Load reads the YAML file at path, or only the environment when path is
// empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("reading environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}
