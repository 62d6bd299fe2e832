// Package config loads the rehearse client configuration from a YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the TUI needs at construction time. The interview
// service base URL is injected here rather than read from a global.
type Config struct {
	APIURL          string        `yaml:"api_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	CaptureSocket   string        `yaml:"capture_socket"`
	DefaultDuration int           `yaml:"default_duration"` // minutes
	Locale          string        `yaml:"locale"`
	Voice           string        `yaml:"voice"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "rehearse", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "rehearse", "config.yaml")
}

func defaults() Config {
	return Config{
		RequestTimeout:  30 * time.Second,
		DefaultDuration: 10,
		Locale:          "en-US",
	}
}

// Load reads the config file at path when it exists, applies env overrides,
// and validates the result. A missing file is not an error; env vars alone
// can carry the full configuration.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env overrides
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("REHEARSE_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("REHEARSE_CAPTURE_SOCKET"); v != "" {
		cfg.CaptureSocket = v
	}
	if v := os.Getenv("REHEARSE_LOCALE"); v != "" {
		cfg.Locale = v
	}
	if v := os.Getenv("REHEARSE_VOICE"); v != "" {
		cfg.Voice = v
	}
	if v := os.Getenv("REHEARSE_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
}

func validate(cfg *Config) error {
	if cfg.APIURL == "" {
		return fmt.Errorf("api_url is required (set it in the config file or REHEARSE_API_URL)")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if cfg.DefaultDuration <= 0 {
		return fmt.Errorf("default_duration must be positive")
	}
	return nil
}
