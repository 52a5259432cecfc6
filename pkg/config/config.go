package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jdyer28/LSPI/pkg/planner"
	"github.com/jdyer28/LSPI/pkg/sqlgen"
)

// Config holds connection and planning defaults.
type Config struct {
	Driver          string `yaml:"driver"`
	DSN             string `yaml:"dsn"`
	Schema          string `yaml:"schema"`
	EntityColumn    string `yaml:"entity_column"`
	TimestampColumn string `yaml:"timestamp_column"`
	LogLevel        string `yaml:"log_level"`
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrValidation creates a ValidationError.
func ErrValidation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// SlogLevel parses LogLevel into a slog.Level (default: Info).
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads an optional YAML file, then applies environment overrides and
// defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFromEnv builds a Config from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"LSPI_DRIVER", &c.Driver},
		{"LSPI_DSN", &c.DSN},
		{"LSPI_SCHEMA", &c.Schema},
		{"LSPI_ENTITY_COLUMN", &c.EntityColumn},
		{"LSPI_TIMESTAMP_COLUMN", &c.TimestampColumn},
		{"LOG_LEVEL", &c.LogLevel},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite3"
	}
	if c.EntityColumn == "" {
		c.EntityColumn = planner.DefaultEntityKey
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks that the configuration can open a store.
func (c *Config) Validate() error {
	var errs []error
	if _, err := sqlgen.DialectFor(c.Driver); err != nil {
		errs = append(errs, ErrValidation("driver: %v", err))
	}
	if c.DSN == "" && c.Driver != "duckdb" {
		errs = append(errs, ErrValidation("dsn is required for driver %s", c.Driver))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ErrValidation("unknown log level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}
