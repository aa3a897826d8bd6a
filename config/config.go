// Package config handles loading and managing application configuration
// from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/openclaw/qrstudio/qr"
)

// Config holds all application configuration values.
type Config struct {
	Port          int        `yaml:"port"`
	DataDir       string     `yaml:"data_dir"`
	LogLevel      string     `yaml:"log_level"`
	History       bool       `yaml:"history"`
	WebhookURL    string     `yaml:"webhook_url"`
	SessionTTL    Duration   `yaml:"session_ttl"`
	SweepInterval Duration   `yaml:"sweep_interval"`
	MaxTextLength int        `yaml:"max_text_length"`
	MaxWidth      int        `yaml:"max_width"`
	Defaults      qr.Options `yaml:"defaults"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "30s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return &Config{
		Port:          8556,
		DataDir:       filepath.Join(homeDir, ".qrstudio"),
		LogLevel:      "info",
		History:       true,
		SessionTTL:    Duration{30 * time.Minute},
		SweepInterval: Duration{time.Minute},
		MaxTextLength: 2953,
		MaxWidth:      4096,
		Defaults:      qr.DefaultOptions(),
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. Environment variables with the
// QRS_ prefix override any file or default values.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// File doesn't exist, proceed with defaults.
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	cfg.Defaults = cfg.Defaults.Normalized()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configured form defaults can be encoded.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("invalid defaults: %w", err)
	}
	if c.MaxWidth > 0 && c.Defaults.Width > c.MaxWidth {
		return fmt.Errorf("default width %d exceeds max_width %d", c.Defaults.Width, c.MaxWidth)
	}
	return nil
}

// applyEnvOverrides applies QRS_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QRS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("QRS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QRS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("QRS_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("QRS_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionTTL = Duration{d}
		}
	}
	if v := os.Getenv("QRS_MAX_TEXT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTextLength = n
		}
	}
	if v := os.Getenv("QRS_HISTORY"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.History = true
		case "false", "0", "no":
			cfg.History = false
		}
	}
	if v := os.Getenv("QRS_DEFAULT_TYPE"); v != "" {
		if f, err := qr.ParseFormat(v); err == nil {
			cfg.Defaults.Format = f
		}
	}
	if v := os.Getenv("QRS_DEFAULT_ERROR_CORRECTION"); v != "" {
		if opt, ok := qr.LookupLevel(v); ok {
			cfg.Defaults.ErrorCorrection = opt.Value
		}
	}
}

// HistoryPath is the location of the generation history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// EnsureDataDir creates the DataDir if it does not already exist.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	return nil
}
