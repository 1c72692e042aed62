// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// ListenAddr is the HTTP API listen address
	ListenAddr string `json:"listen_addr"`
	// DataPath is the JSON store file location
	DataPath string `json:"data_path"`
	// LogLevel is the zerolog level name ("debug", "info", ...)
	LogLevel string `json:"log_level"`

	// OAuthClientID is the Google OAuth client identifier
	OAuthClientID string `json:"oauth_client_id"`
	// OAuthClientSecret may be empty for clients without one
	OAuthClientSecret string `json:"oauth_client_secret"`
	// OAuthListenAddr is the loopback address for the consent callback
	OAuthListenAddr string `json:"oauth_listen_addr"`

	// MaxRetries is the retry budget for remote API calls
	MaxRetries int `json:"max_retries"`
	// BaseBackoff is the first retry delay; later delays double
	BaseBackoff time.Duration `json:"base_backoff"`

	// MutationInterval paces bulk mutations
	MutationInterval time.Duration `json:"mutation_interval"`
	// ImportInterval paces subscribe calls during imports
	ImportInterval time.Duration `json:"import_interval"`

	// JobMaxAttempts is the per-job attempt ceiling
	JobMaxAttempts int `json:"job_max_attempts"`
	// JobSuccessDelay is the pause after a completed job
	JobSuccessDelay time.Duration `json:"job_success_delay"`
	// JobFailureDelay is the pause after a failed job run
	JobFailureDelay time.Duration `json:"job_failure_delay"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:       "127.0.0.1:8080",
		DataPath:         defaultDataPath(),
		LogLevel:         "info",
		OAuthListenAddr:  "127.0.0.1:8765",
		MaxRetries:       5,
		BaseBackoff:      500 * time.Millisecond,
		MutationInterval: 100 * time.Millisecond,
		ImportInterval:   120 * time.Millisecond,
		JobMaxAttempts:   5,
		JobSuccessDelay:  50 * time.Millisecond,
		JobFailureDelay:  200 * time.Millisecond,
	}
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ytbackup.db.json"
	}
	return filepath.Join(home, ".config", "ytbackup", "data.json")
}

// Load loads configuration from environment variables, an optional config
// file, and defaults. Priority: env vars > config file > defaults. An
// empty path searches the working directory and ~/.config/ytbackup.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(path); err != nil {
		if path != "" || !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	paths := []string{path}
	if path == "" {
		home, _ := os.UserHomeDir()
		paths = []string{
			"ytbackup.json",
			filepath.Join(home, ".config", "ytbackup", "ytbackup.json"),
		}
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) && path == "" {
				continue
			}
			return err
		}
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		return nil
	}
	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YTBACKUP_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("YTBACKUP_DATA_PATH"); v != "" {
		c.DataPath = v
	}
	if v := os.Getenv("YTBACKUP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("YTBACKUP_OAUTH_CLIENT_ID"); v != "" {
		c.OAuthClientID = v
	}
	if v := os.Getenv("YTBACKUP_OAUTH_CLIENT_SECRET"); v != "" {
		c.OAuthClientSecret = v
	}
	if v := os.Getenv("YTBACKUP_OAUTH_LISTEN_ADDR"); v != "" {
		c.OAuthListenAddr = v
	}
	if v := os.Getenv("YTBACKUP_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("YTBACKUP_BASE_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.BaseBackoff = d
		}
	}
	if v := os.Getenv("YTBACKUP_MUTATION_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MutationInterval = d
		}
	}
	if v := os.Getenv("YTBACKUP_IMPORT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ImportInterval = d
		}
	}
	if v := os.Getenv("YTBACKUP_JOB_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.JobMaxAttempts = n
		}
	}
}

// Validate checks configuration for invalid values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.DataPath == "" {
		return fmt.Errorf("data_path must not be empty")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.BaseBackoff <= 0 {
		return fmt.Errorf("base_backoff must be positive, got %v", c.BaseBackoff)
	}
	if c.MutationInterval <= 0 || c.ImportInterval <= 0 {
		return fmt.Errorf("mutation_interval and import_interval must be positive")
	}
	if c.JobMaxAttempts < 1 {
		return fmt.Errorf("job_max_attempts must be >= 1, got %d", c.JobMaxAttempts)
	}
	return nil
}
