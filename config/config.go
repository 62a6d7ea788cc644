// Package config loads the optional application configuration file.
// Every setting has a default, so the application runs without any
// configuration present.
package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v2"
)

// Config represents the entire application configuration.
type Config struct {
	// DatabasePath overrides the per-platform default database file
	// location when set.
	DatabasePath string `yaml:"database_path"`

	// SQLDir mounts a directory of sql files over the embedded ones,
	// for development.
	SQLDir string `yaml:"sql_dir"`

	LogLevel string `yaml:"log_level"`

	// PageLength is the default number of rows per page for paginated
	// listings when the caller does not supply a limit.
	PageLength int `yaml:"page_length"`

	// ExportYearSpan is the width of the fallback year range used by
	// spreadsheet export when the dataset holds no payments at all.
	ExportYearSpan int `yaml:"export_year_span"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		PageLength:     20,
		ExportYearSpan: 5,
	}
}

// Load loads and validates the configuration from the given file path.
func Load(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", filePath)
	}

	configFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(configFile, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse YAML config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads filePath when it is non-empty, otherwise returns
// the defaults.
func LoadOrDefault(filePath string) (*Config, error) {
	if filePath == "" {
		return Default(), nil
	}
	return Load(filePath)
}

// validate checks field values are usable.
func validate(c *Config) error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if c.PageLength < 1 {
		return fmt.Errorf("page_length must be at least 1, got %d", c.PageLength)
	}
	if c.ExportYearSpan < 1 {
		return fmt.Errorf("export_year_span must be at least 1, got %d", c.ExportYearSpan)
	}
	return nil
}

// ParsedLogLevel returns the configured log level; validate has already
// checked it parses.
func (c *Config) ParsedLogLevel() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
