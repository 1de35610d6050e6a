package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the singleton configuration instance shared by
	// cmd/laproxy's proxy instances and cmd/laproxy-backend's service
	// loop.
	globalConfig *Config

	// configMutex protects access to globalConfig and generation.
	configMutex sync.RWMutex

	// initOnce ensures configuration is initialized only once per process.
	initOnce sync.Once

	// generation counts successful loads/reloads, starting at 1 for the
	// Initialize call. pkg/config/watch.go logs it on every reload so an
	// operator can tell from the logs whether an edited config file was
	// actually picked up.
	generation uint64
)

// Initialize loads configuration from the specified path with environment
// variable overrides and stores it as the global singleton configuration.
// Called once per process, from cmd/laproxy's and cmd/laproxy-backend's
// run commands. Subsequent calls are ignored (uses sync.Once internally).
//
// Returns an error if configuration loading or validation fails.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		generation++
		configMutex.Unlock()
	})

	return initErr
}

// GetConfig returns the global configuration instance.
// It returns nil if Initialize has not been called successfully.
// This function is thread-safe and can be called concurrently by the
// goroutines running each configured proxy instance.
//
// For testing, prefer using dependency injection with explicit Config
// instances rather than relying on the global singleton.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig sets the global configuration instance.
// This function is primarily intended for testing and should not be used
// in production code. Use Initialize for normal configuration loading.
//
// This function is thread-safe.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
	generation++
}

// ReloadConfig reloads the configuration from the specified path, the way
// pkg/config/watch.go's fsnotify handler does on every file-change event.
// The new configuration replaces the global instance only if loading and
// validation succeed. cmd/laproxy and cmd/laproxy-backend read GetConfig
// once at startup and build their proxies, Judges and backend from that
// copy, so a reload changes what GetConfig returns but does not
// reconfigure components that are already running.
//
// Returns an error if reloading fails, in which case the existing
// configuration remains unchanged.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	generation++
	configMutex.Unlock()

	return nil
}

// Generation returns the number of successful loads/reloads so far (0
// before Initialize/SetConfig has ever run). WatchAndReload logs this
// alongside its "configuration reloaded" message.
func Generation() uint64 {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return generation
}

// MustGetConfig returns the global configuration instance.
// It panics if the configuration has not been initialized.
// This should only be used in code paths where configuration is
// guaranteed to be initialized (e.g., after successful application startup).
//
// For most use cases, prefer GetConfig which returns nil instead of panicking.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
