// Package config defines the YAML-backed configuration for both the
// laproxy instance and backend processes, following a three-phase
// load/default/validate pipeline.
package config

import (
	"regexp"
	"time"
)

// Config is the root configuration structure. A single file covers
// both cmd/laproxy (which reads Proxies and Judge) and
// cmd/laproxy-backend (which reads Backend); each binary ignores the
// sections it doesn't need.
type Config struct {
	// Proxies lists every listen/target pairing this laproxy process
	// should run, one TCPProxy per entry.
	Proxies []ProxyInstance `yaml:"proxies"`

	// Judge configures the proxy-side learning client shared across
	// all smart-mode proxy instances in this process.
	Judge JudgeConfig `yaml:"judge"`

	// Backend configures the learning server process.
	Backend BackendConfig `yaml:"backend"`

	// Logging controls the process-wide slog handler.
	Logging LoggingConfig `yaml:"logging"`
}

// ProxyMode selects which pkg/proxy/handlers connection handler a
// ProxyInstance runs per connection.
type ProxyMode string

const (
	ModeRaw   ProxyMode = "raw"
	ModeLine  ProxyMode = "line"
	ModeHTTP  ProxyMode = "http"
	ModeSmart ProxyMode = "smart"
)

// ProxyInstance is one listen/target pairing.
type ProxyInstance struct {
	// ServiceID identifies this instance to the backend; defaults to
	// the listen port if empty.
	ServiceID string `yaml:"service_id"`

	ListenAddress string `yaml:"listen_address"`
	ListenPort    int    `yaml:"listen_port"`
	TargetAddress string `yaml:"target_address"`
	TargetPort    int    `yaml:"target_port"`

	// Mode selects the connection handler. Default: "raw".
	Mode ProxyMode `yaml:"mode"`
}

// JudgeConfig configures the proxy-side learning client.
type JudgeConfig struct {
	UpdaterHost string `yaml:"updater_host"`
	UpdaterPort int    `yaml:"updater_port"`

	// FlagRegex is intentionally a configuration value rather than a
	// constant; the default is loose by design.
	FlagRegex string `yaml:"flag_regex"`

	PushInterval  time.Duration `yaml:"push_interval"`
	UpdateTimeout time.Duration `yaml:"update_timeout"`
}

// CompiledFlagRegex compiles FlagRegex, falling back to the package
// default when empty.
func (j JudgeConfig) CompiledFlagRegex() (*regexp.Regexp, error) {
	pattern := j.FlagRegex
	if pattern == "" {
		pattern = DefaultFlagRegex
	}
	return regexp.Compile(pattern)
}

// BackendConfig configures the learning server.
type BackendConfig struct {
	ListenAddress  string        `yaml:"listen_address"`
	ListenPort     int           `yaml:"listen_port"`
	DataDir        string        `yaml:"data_dir"`
	RefitInterval  time.Duration `yaml:"refit_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MetricsAddress, when non-empty, serves Prometheus metrics on
	// this address (e.g. ":9090") alongside the update listener.
	MetricsAddress string `yaml:"metrics_address"`
}

// LoggingConfig controls the slog handler installed at the process
// entrypoint.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error". Default: "info".
	Level string `yaml:"level"`
}
