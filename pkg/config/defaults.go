package config

import (
	"strconv"
	"time"
)

// Default values for configuration fields.
const (
	DefaultJudgeUpdaterHost   = "127.0.0.1"
	DefaultJudgeUpdaterPort   = 9000
	DefaultFlagRegex          = `[A-Z0-9]{31}=`
	DefaultJudgePushInterval  = 40 * time.Second
	DefaultJudgeUpdateTimeout = 60 * time.Second

	DefaultBackendListenAddress  = "0.0.0.0"
	DefaultBackendListenPort     = 9000
	DefaultBackendDataDir        = "data"
	DefaultBackendRefitInterval  = 45 * time.Second
	DefaultBackendRequestTimeout = 60 * time.Second

	DefaultProxyListenAddress = "0.0.0.0"
	DefaultProxyMode          = ModeRaw

	DefaultLoggingLevel = "info"
)

// ApplyDefaults fills in zero-valued fields with their defaults. It is
// safe to call on an already-populated Config; only zero values are
// touched.
func ApplyDefaults(cfg *Config) {
	for i := range cfg.Proxies {
		applyProxyInstanceDefaults(&cfg.Proxies[i])
	}
	applyJudgeDefaults(&cfg.Judge)
	applyBackendDefaults(&cfg.Backend)
	applyLoggingDefaults(&cfg.Logging)
}

func applyProxyInstanceDefaults(p *ProxyInstance) {
	if p.ListenAddress == "" {
		p.ListenAddress = DefaultProxyListenAddress
	}
	if p.Mode == "" {
		p.Mode = DefaultProxyMode
	}
	if p.ServiceID == "" && p.ListenPort != 0 {
		p.ServiceID = strconv.Itoa(p.ListenPort)
	}
}

func applyJudgeDefaults(j *JudgeConfig) {
	if j.UpdaterHost == "" {
		j.UpdaterHost = DefaultJudgeUpdaterHost
	}
	if j.UpdaterPort == 0 {
		j.UpdaterPort = DefaultJudgeUpdaterPort
	}
	if j.FlagRegex == "" {
		j.FlagRegex = DefaultFlagRegex
	}
	if j.PushInterval <= 0 {
		j.PushInterval = DefaultJudgePushInterval
	}
	if j.UpdateTimeout <= 0 {
		j.UpdateTimeout = DefaultJudgeUpdateTimeout
	}
}

func applyBackendDefaults(b *BackendConfig) {
	if b.ListenAddress == "" {
		b.ListenAddress = DefaultBackendListenAddress
	}
	if b.ListenPort == 0 {
		b.ListenPort = DefaultBackendListenPort
	}
	if b.DataDir == "" {
		b.DataDir = DefaultBackendDataDir
	}
	if b.RefitInterval <= 0 {
		b.RefitInterval = DefaultBackendRefitInterval
	}
	if b.RequestTimeout <= 0 {
		b.RequestTimeout = DefaultBackendRequestTimeout
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = DefaultLoggingLevel
	}
}
