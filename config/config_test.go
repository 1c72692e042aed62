package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() invalid: %v", err)
	}
	if cfg.MaxRetries != 5 || cfg.BaseBackoff != 500*time.Millisecond {
		t.Errorf("retry defaults = %d/%v, want 5/500ms", cfg.MaxRetries, cfg.BaseBackoff)
	}
	if cfg.JobMaxAttempts != 5 {
		t.Errorf("JobMaxAttempts = %d, want 5", cfg.JobMaxAttempts)
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ytbackup.json")
	file := `{
		"listen_addr": "127.0.0.1:9999",
		"oauth_client_id": "file-client",
		"max_retries": 2
	}`
	if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("YTBACKUP_OAUTH_CLIENT_ID", "env-client")
	t.Setenv("YTBACKUP_MAX_RETRIES", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("ListenAddr = %q, want value from file", cfg.ListenAddr)
	}
	if cfg.OAuthClientID != "env-client" {
		t.Errorf("OAuthClientID = %q, want env override", cfg.OAuthClientID)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2 from file", cfg.MaxRetries)
	}
	// Untouched fields keep defaults.
	if cfg.MutationInterval != 100*time.Millisecond {
		t.Errorf("MutationInterval = %v, want default", cfg.MutationInterval)
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Load() with explicit missing path did not fail")
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }},
		{"empty data path", func(c *Config) { c.DataPath = "" }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"zero backoff", func(c *Config) { c.BaseBackoff = 0 }},
		{"zero pacing", func(c *Config) { c.MutationInterval = 0 }},
		{"zero job attempts", func(c *Config) { c.JobMaxAttempts = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}
