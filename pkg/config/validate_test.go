package config

import (
	"errors"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Proxies: []ProxyInstance{
			{ServiceID: "8080", ListenPort: 8080, TargetAddress: "127.0.0.1", TargetPort: 8000, Mode: ModeSmart},
		},
		Judge: JudgeConfig{
			UpdaterHost:   "127.0.0.1",
			UpdaterPort:   9000,
			FlagRegex:     DefaultFlagRegex,
			PushInterval:  40 * time.Second,
			UpdateTimeout: 60 * time.Second,
		},
		Backend: BackendConfig{
			ListenAddress:  "0.0.0.0",
			ListenPort:     9000,
			DataDir:        "./data",
			RefitInterval:  45 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsOutOfRangeProxyListenPort(t *testing.T) {
	cfg := validConfig()
	cfg.Proxies[0].ListenPort = 70000
	assertFieldError(t, Validate(cfg), "proxies[0].listen_port")
}

func TestValidateRejectsEmptyTargetAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Proxies[0].TargetAddress = ""
	assertFieldError(t, Validate(cfg), "proxies[0].target_address")
}

func TestValidateRejectsOutOfRangeTargetPort(t *testing.T) {
	cfg := validConfig()
	cfg.Proxies[0].TargetPort = 0
	assertFieldError(t, Validate(cfg), "proxies[0].target_port")
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := validConfig()
	cfg.Proxies[0].Mode = "bogus"
	assertFieldError(t, Validate(cfg), "proxies[0].mode")
}

func TestValidateRejectsOutOfRangeJudgeUpdaterPort(t *testing.T) {
	cfg := validConfig()
	cfg.Judge.UpdaterPort = -1
	assertFieldError(t, Validate(cfg), "judge.updater_port")
}

func TestValidateRejectsInvalidFlagRegex(t *testing.T) {
	cfg := validConfig()
	cfg.Judge.FlagRegex = "(unterminated"
	assertFieldError(t, Validate(cfg), "judge.flag_regex")
}

func TestValidateRejectsNonPositivePushInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Judge.PushInterval = 0
	assertFieldError(t, Validate(cfg), "judge.push_interval")
}

func TestValidateRejectsNonPositiveUpdateTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Judge.UpdateTimeout = 0
	assertFieldError(t, Validate(cfg), "judge.update_timeout")
}

func TestValidateRejectsOutOfRangeBackendListenPort(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.ListenPort = 0
	assertFieldError(t, Validate(cfg), "backend.listen_port")
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.DataDir = ""
	assertFieldError(t, Validate(cfg), "backend.data_dir")
}

func TestValidateRejectsNonPositiveRefitInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.RefitInterval = 0
	assertFieldError(t, Validate(cfg), "backend.refit_interval")
}

func TestValidateRejectsNonPositiveRequestTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.RequestTimeout = 0
	assertFieldError(t, Validate(cfg), "backend.request_timeout")
}

func TestValidateRejectsUnknownLoggingLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	assertFieldError(t, Validate(cfg), "logging.level")
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.DataDir = ""
	cfg.Logging.Level = "verbose"
	var verr ValidationError
	if !errors.As(Validate(cfg), &verr) {
		t.Fatalf("expected a ValidationError")
	}
	if len(verr.Errors) != 2 {
		t.Fatalf("expected 2 collected errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}
	for _, fe := range verr.Errors {
		if fe.Field == field {
			return
		}
	}
	t.Fatalf("expected a field error for %q, got %v", field, verr.Errors)
}
