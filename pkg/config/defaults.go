package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/dittotree/pkg/tree"
)

// Backend defaults.
const (
	DefaultBackendType    = "memory"
	DefaultRedisAddr      = "localhost:6379"
	DefaultConnectRetries = 3
)

// Metrics and GC defaults.
const (
	DefaultMetricsPort = 9090
	DefaultGCInterval  = time.Hour
	DefaultGCBatchSize = 500
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
// Backend-specific defaults beyond the ones below are handled by the
// backend constructors.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyBackendDefaults(&cfg.Backend)
	applyTreeDefaults(&cfg.Tree)

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}
	if cfg.GC.Interval == 0 {
		cfg.GC.Interval = DefaultGCInterval
	}
	if cfg.GC.BatchSize == 0 {
		cfg.GC.BatchSize = DefaultGCBatchSize
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyBackendDefaults sets backend defaults.
func applyBackendDefaults(cfg *BackendConfig) {
	if cfg.Type == "" {
		cfg.Type = DefaultBackendType
	}
	if cfg.ConnectRetries == 0 {
		cfg.ConnectRetries = DefaultConnectRetries
	}
	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = cfg.RateLimit.RequestsPerSecond
	}

	switch cfg.Type {
	case "memory":
		if cfg.Memory == nil {
			cfg.Memory = make(map[string]any)
		}
	case "badger":
		if cfg.Badger == nil {
			cfg.Badger = make(map[string]any)
		}
		inMemory, _ := cfg.Badger["in_memory"].(bool)
		if _, ok := cfg.Badger["db_path"]; !ok && !inMemory {
			cfg.Badger["db_path"] = filepath.Join(getConfigDir(), "data")
		}
	case "redis":
		if cfg.Redis == nil {
			cfg.Redis = make(map[string]any)
		}
		if _, ok := cfg.Redis["addr"]; !ok {
			cfg.Redis["addr"] = DefaultRedisAddr
		}
	}
}

// applyTreeDefaults sets tree layout defaults.
func applyTreeDefaults(cfg *TreeConfig) {
	if cfg.CounterKey == "" {
		cfg.CounterKey = tree.DefaultCounterKey
	}
	if cfg.MaxSymlinkHops == 0 {
		cfg.MaxSymlinkHops = tree.DefaultMaxSymlinkHops
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for generating sample configuration files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Backend: BackendConfig{
			Memory: make(map[string]any),
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
