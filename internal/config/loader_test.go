package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.API.BaseURL != "http://localhost:3010" {
		t.Errorf("expected default API URL, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("expected api timeout 15s, got %v", cfg.API.Timeout)
	}
	if cfg.Cache.TTL != time.Second {
		t.Errorf("expected cache ttl 1s, got %v", cfg.Cache.TTL)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.State.Path == "" {
		t.Error("expected non-empty default state path")
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
api:
  base_url: "https://helpdesk.example.com"
  timeout: 20s
cache:
  ttl: 2s
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.API.BaseURL != "https://helpdesk.example.com" {
		t.Errorf("expected overridden base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 20*time.Second {
		t.Errorf("expected timeout 20s, got %v", cfg.API.Timeout)
	}
	if cfg.Cache.TTL != 2*time.Second {
		t.Errorf("expected cache ttl 2s, got %v", cfg.Cache.TTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.Stub.Port != "3010" {
		t.Errorf("expected default stub port, got %s", cfg.Stub.Port)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/path.yaml"); err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLMalformed(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(yamlPath, []byte("api: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CROWNDESK_API_URL", "https://env.example.com")
	t.Setenv("CROWNDESK_API_TIMEOUT", "25s")
	t.Setenv("CROWNDESK_LOG_LEVEL", "warn")
	t.Setenv("CROWNDESK_LOG_ASYNC", "true")
	t.Setenv("CROWNDESK_BREAKER_MAX_FAILURES", "9")
	t.Setenv("CROWNDESK_CACHE_SIZE_MB", "64")

	cfg := Defaults()
	loadEnv(&cfg)

	if cfg.API.BaseURL != "https://env.example.com" {
		t.Errorf("expected env base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 25*time.Second {
		t.Errorf("expected timeout 25s, got %v", cfg.API.Timeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if !cfg.Logging.Async {
		t.Error("expected async logging enabled")
	}
	if cfg.Breaker.MaxFailures != 9 {
		t.Errorf("expected max failures 9, got %d", cfg.Breaker.MaxFailures)
	}
	if cfg.Cache.MaxSizeMB != 64 {
		t.Errorf("expected cache size 64, got %d", cfg.Cache.MaxSizeMB)
	}
}

func TestEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("CROWNDESK_API_TIMEOUT", "soon")
	t.Setenv("CROWNDESK_BREAKER_MAX_FAILURES", "many")

	cfg := Defaults()
	loadEnv(&cfg)

	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("invalid duration should keep default, got %v", cfg.API.Timeout)
	}
	if cfg.Breaker.MaxFailures != 5 {
		t.Errorf("invalid int should keep default, got %d", cfg.Breaker.MaxFailures)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: "api.base_url is required"},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: "api.timeout must be positive"},
		{name: "missing state path", mutate: func(c *Config) { c.State.Path = "" }, wantErr: "state.path is required"},
		{name: "zero cache ttl", mutate: func(c *Config) { c.Cache.TTL = 0 }, wantErr: "cache.ttl must be positive"},
		{name: "zero breaker failures", mutate: func(c *Config) { c.Breaker.MaxFailures = 0 }, wantErr: "breaker.max_failures must be >= 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := validate(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "crowndesk.yaml")
	content := `
api:
  base_url: "https://file.example.com"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CROWNDESK_API_URL", "https://env-wins.example.com")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.API.BaseURL != "https://env-wins.example.com" {
		t.Errorf("env should override yaml, got %s", cfg.API.BaseURL)
	}
}
