package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "crowndesk.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.API.BaseURL, "CROWNDESK_API_URL")
	setDuration(&cfg.API.Timeout, "CROWNDESK_API_TIMEOUT")
	setString(&cfg.State.Path, "CROWNDESK_STATE_PATH")
	setInt64(&cfg.Cache.MaxSizeMB, "CROWNDESK_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "CROWNDESK_CACHE_TTL")
	setString(&cfg.Logging.Level, "CROWNDESK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CROWNDESK_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "CROWNDESK_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "CROWNDESK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "CROWNDESK_BREAKER_TIMEOUT")
	setString(&cfg.Telemetry.OTLPEndpoint, "CROWNDESK_OTLP_ENDPOINT")
	setString(&cfg.Stub.Port, "CROWNDESK_STUB_PORT")
	setString(&cfg.Stub.JWTSecret, "CROWNDESK_STUB_JWT_SECRET")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if cfg.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if cfg.State.Path == "" {
		return errors.New("state.path is required")
	}
	if cfg.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
