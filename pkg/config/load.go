package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at path, applies
// defaults, validates the result, and returns any error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads path and applies LAPROXY_* environment
// overrides, which always take precedence over the file.
//
// The loading sequence is: parse YAML, apply defaults, validate, apply
// env overrides, validate again. A file that is invalid on its own is
// rejected even if an environment override would have corrected it.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies LAPROXY_SECTION_FIELD environment overrides.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("LAPROXY_JUDGE_UPDATER_HOST"); val != "" {
		cfg.Judge.UpdaterHost = val
	}
	if val := os.Getenv("LAPROXY_JUDGE_UPDATER_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Judge.UpdaterPort = i
		}
	}
	if val := os.Getenv("LAPROXY_JUDGE_FLAG_REGEX"); val != "" {
		cfg.Judge.FlagRegex = val
	}
	if val := os.Getenv("LAPROXY_JUDGE_PUSH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Judge.PushInterval = d
		}
	}
	if val := os.Getenv("LAPROXY_JUDGE_UPDATE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Judge.UpdateTimeout = d
		}
	}

	if val := os.Getenv("LAPROXY_BACKEND_LISTEN_ADDRESS"); val != "" {
		cfg.Backend.ListenAddress = val
	}
	if val := os.Getenv("LAPROXY_BACKEND_LISTEN_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Backend.ListenPort = i
		}
	}
	if val := os.Getenv("LAPROXY_BACKEND_DATA_DIR"); val != "" {
		cfg.Backend.DataDir = val
	}
	if val := os.Getenv("LAPROXY_BACKEND_REFIT_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Backend.RefitInterval = d
		}
	}
	if val := os.Getenv("LAPROXY_BACKEND_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Backend.RequestTimeout = d
		}
	}
	if val := os.Getenv("LAPROXY_BACKEND_METRICS_ADDRESS"); val != "" {
		cfg.Backend.MetricsAddress = val
	}

	if val := os.Getenv("LAPROXY_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}
