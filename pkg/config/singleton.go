package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// The process-wide configuration. Commands publish the file they loaded here
// and the watcher replaces it on every successful reload.
var (
	current  atomic.Pointer[Config]
	initOnce sync.Once
)

// Initialize loads path with environment overrides and publishes the result.
// Only the first call loads anything; later calls return nil.
func Initialize(path string) error {
	var initErr error
	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		current.Store(cfg)
	})
	return initErr
}

// GetConfig returns the published configuration, or nil before Initialize
// or SetConfig.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig publishes cfg.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// ReloadConfig loads path again and publishes it. On error the previous
// configuration stays published. The new configuration is returned so that
// callers can push reloadable settings, such as alert thresholds, into
// running components.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}
	current.Store(cfg)
	return cfg, nil
}

// MustGetConfig is GetConfig for code that runs after startup. It panics
// when nothing has been published.
func MustGetConfig() *Config {
	cfg := current.Load()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

func resetForTesting() {
	current.Store(nil)
	initOnce = sync.Once{}
}
