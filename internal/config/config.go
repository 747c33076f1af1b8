// Package config loads the carbonledger configuration file and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// DefaultsConfig holds default calculation context applied when the
// corresponding CLI flags are omitted.
type DefaultsConfig struct {
	// Region filters factor resolution (see factors.Filter). Empty
	// means no region filter beyond the implicit "global" candidates.
	Region string `yaml:"region"`

	// Year filters factor resolution. Zero means no year filter.
	Year int `yaml:"year"`

	// Output is the default output format: table or json.
	Output string `yaml:"output"`
}

// Config is the root configuration document.
type Config struct {
	// Database is the SQLite path holding the factor library and run
	// history. Relative paths are resolved against the working dir.
	Database string `yaml:"database"`

	Defaults DefaultsConfig `yaml:"defaults"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Database: defaultDatabasePath(),
		Defaults: DefaultsConfig{Output: "table"},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// defaultDatabasePath places the database under the user home dir,
// falling back to the working directory when home cannot be resolved.
func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "carbonledger.db"
	}
	return filepath.Join(home, ".carbonledger", "carbonledger.db")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".carbonledger", "config.yaml")
}

// Load reads the config file at path, merges it over DefaultConfig,
// and applies CARBONLEDGER_* environment overrides. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv layers environment variables over file values. Environment
// wins over the file; CLI flags win over both (handled in the CLI).
func applyEnv(cfg *Config) {
	if v := os.Getenv("CARBONLEDGER_DB"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("CARBONLEDGER_REGION"); v != "" {
		cfg.Defaults.Region = v
	}
	if v := os.Getenv("CARBONLEDGER_YEAR"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			cfg.Defaults.Year = year
		}
	}
	if v := os.Getenv("CARBONLEDGER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CARBONLEDGER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// EnsureDataDir creates the parent directory of the configured
// database path so first use does not require manual setup.
func (c Config) EnsureDataDir() error {
	dir := filepath.Dir(c.Database)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o700)
}
