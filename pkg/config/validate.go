package config

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "backend.listen_port").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail, or nil otherwise. All
// errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	for i, p := range cfg.Proxies {
		errs = append(errs, validateProxyInstance(i, &p)...)
	}
	errs = append(errs, validateJudge(&cfg.Judge)...)
	errs = append(errs, validateBackend(&cfg.Backend)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateProxyInstance(i int, p *ProxyInstance) []FieldError {
	var errs []FieldError
	prefix := fmt.Sprintf("proxies[%d]", i)

	if p.ListenPort <= 0 || p.ListenPort > 65535 {
		errs = append(errs, FieldError{prefix + ".listen_port", "must be between 1 and 65535"})
	}
	if p.TargetAddress == "" {
		errs = append(errs, FieldError{prefix + ".target_address", "must not be empty"})
	}
	if p.TargetPort <= 0 || p.TargetPort > 65535 {
		errs = append(errs, FieldError{prefix + ".target_port", "must be between 1 and 65535"})
	}
	switch p.Mode {
	case ModeRaw, ModeLine, ModeHTTP, ModeSmart:
	default:
		errs = append(errs, FieldError{prefix + ".mode", fmt.Sprintf("unknown mode %q", p.Mode)})
	}
	return errs
}

func validateJudge(j *JudgeConfig) []FieldError {
	var errs []FieldError
	if j.UpdaterPort <= 0 || j.UpdaterPort > 65535 {
		errs = append(errs, FieldError{"judge.updater_port", "must be between 1 and 65535"})
	}
	if _, err := regexp.Compile(j.FlagRegex); err != nil {
		errs = append(errs, FieldError{"judge.flag_regex", fmt.Sprintf("invalid regular expression: %v", err)})
	}
	if j.PushInterval <= 0 {
		errs = append(errs, FieldError{"judge.push_interval", "must be positive"})
	}
	if j.UpdateTimeout <= 0 {
		errs = append(errs, FieldError{"judge.update_timeout", "must be positive"})
	}
	return errs
}

func validateBackend(b *BackendConfig) []FieldError {
	var errs []FieldError
	if b.ListenPort <= 0 || b.ListenPort > 65535 {
		errs = append(errs, FieldError{"backend.listen_port", "must be between 1 and 65535"})
	}
	if b.DataDir == "" {
		errs = append(errs, FieldError{"backend.data_dir", "must not be empty"})
	}
	if b.RefitInterval <= 0 {
		errs = append(errs, FieldError{"backend.refit_interval", "must be positive"})
	}
	if b.RequestTimeout <= 0 {
		errs = append(errs, FieldError{"backend.request_timeout", "must be positive"})
	}
	return errs
}

func validateLogging(l *LoggingConfig) []FieldError {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return []FieldError{{"logging.level", fmt.Sprintf("unknown level %q", l.Level)}}
	}
}
