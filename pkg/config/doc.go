// Package config provides configuration management for laproxy and its
// backend.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention LAPROXY_SECTION_FIELD.
// For example:
//
//   - LAPROXY_BACKEND_LISTEN_ADDRESS overrides backend.listen_address
//   - LAPROXY_JUDGE_FLAG_REGEX overrides judge.flag_regex
//   - LAPROXY_LOGGING_LEVEL overrides logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Backend.ListenAddress)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Example Configuration
//
// Here is a minimal configuration file for cmd/laproxy:
//
//	proxies:
//	  - listen_port: 8080
//	    target_address: "127.0.0.1"
//	    target_port: 8000
//	    mode: "smart"
//
//	judge:
//	  updater_host: "127.0.0.1"
//	  updater_port: 9000
//
//	logging:
//	  level: "info"
package config
