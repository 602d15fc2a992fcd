package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete DittoTree configuration.
//
// This structure captures all configurable aspects of a DittoTree namespace:
//   - Logging configuration
//   - Backend selection and configuration (backend-specific)
//   - Tree layout (key prefix, counter key, symlink hop budget)
//   - Metrics collection and the metrics endpoint port
//   - Garbage collection of unreachable records
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOTREE_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Backend Configuration Pattern:
// Each backend defines its own configuration type and factory function.
// The Config struct contains type-specific sections (e.g., backend.badger,
// backend.redis) and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Backend specifies the key-value backend type and type-specific configuration
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`

	// Tree controls the key layout of the namespace
	Tree TreeConfig `mapstructure:"tree" yaml:"tree"`

	// Metrics controls Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// GC controls the orphaned record collector
	GC GCConfig `mapstructure:"gc" yaml:"gc"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// BackendConfig specifies the key-value backend.
//
// The Type field determines which backend implementation is used.
// Only the corresponding type-specific configuration section is used.
type BackendConfig struct {
	// Type specifies which backend implementation to use
	// Valid values: memory, badger, redis
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger redis"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`

	// Redis contains Redis-specific configuration
	// Only used when Type = "redis"
	Redis map[string]any `mapstructure:"redis" yaml:"redis,omitempty"`

	// RateLimit throttles batches sent to the backend
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`

	// ConnectRetries is the number of attempts made to reach a remote backend
	ConnectRetries uint `mapstructure:"connect_retries" yaml:"connect_retries" validate:"gte=1,lte=100"`
}

// RateLimitConfig controls backend throttling.
// A zero RequestsPerSecond disables throttling.
type RateLimitConfig struct {
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             uint `mapstructure:"burst" yaml:"burst"`
}

// TreeConfig controls how the namespace is laid out in the backend.
type TreeConfig struct {
	// KeyPrefix is prepended to every key the tree writes
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`

	// CounterKey names the node id counter (before KeyPrefix is applied)
	CounterKey string `mapstructure:"counter_key" yaml:"counter_key" validate:"required"`

	// MaxSymlinkHops bounds symlink substitutions during one resolution
	MaxSymlinkHops int `mapstructure:"max_symlink_hops" yaml:"max_symlink_hops" validate:"gte=1,lte=4096"`
}

// MetricsConfig controls metrics collection.
type MetricsConfig struct {
	// Enabled turns on Prometheus metrics collection
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port serves /metrics while a long-running command is active
	Port int `mapstructure:"port" yaml:"port" validate:"gte=1,lte=65535"`
}

// GCConfig controls garbage collection of unreachable records.
type GCConfig struct {
	// Interval between background runs in watch mode
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gt=0" jsonschema:"oneof_type=string;integer"`

	// BatchSize is the number of records removed per backend batch
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size" validate:"gte=1,lte=100000"`

	// DryRun reports orphans without deleting them
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOTREE_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath searches the default location; a missing file there
// is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: DITTOTREE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOTREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittotree/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittotree")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittotree")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
