// Package config provides hierarchical configuration loading for the console.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all runtime configuration for the crowndesk console.
type Config struct {
	API       API       `yaml:"api"`
	State     State     `yaml:"state"`
	Cache     Cache     `yaml:"cache"`
	Logging   Logging   `yaml:"logging"`
	Breaker   Breaker   `yaml:"breaker"`
	Telemetry Telemetry `yaml:"telemetry"`
	Stub      Stub      `yaml:"stub"`
}

// API holds the helpdesk backend endpoint configuration.
type API struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // per-request; stalled requests fail as transient
}

// State holds durable client storage configuration.
type State struct {
	Path string `yaml:"path"`
}

// Cache holds response cache configuration.
type Cache struct {
	MaxSizeMB int64         `yaml:"max_size_mb"`
	TTL       time.Duration `yaml:"ttl"` // list refetch suppression window
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for outbound API calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Telemetry holds OpenTelemetry trace export configuration.
// An empty endpoint disables export.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Stub holds the local development API stub configuration.
type Stub struct {
	Port      string `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		API: API{
			BaseURL: "http://localhost:3010",
			Timeout: 15 * time.Second,
		},
		State: State{
			Path: defaultStatePath(),
		},
		Cache: Cache{
			MaxSizeMB: 16,
			TTL:       time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "crowndesk",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Stub: Stub{
			Port:      "3010",
			JWTSecret: "stub-dev-secret",
		},
	}
}

// defaultStatePath places the state database under the user config dir,
// falling back to the working directory when none is available.
func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "crowndesk-state.db"
	}
	return filepath.Join(dir, "crowndesk", "state.db")
}
