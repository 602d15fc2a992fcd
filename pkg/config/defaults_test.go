package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_NormalizesLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Backend(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Backend.Type != "memory" {
		t.Errorf("Expected default backend type 'memory', got %q", cfg.Backend.Type)
	}
	if cfg.Backend.Memory == nil {
		t.Error("Expected memory section to be initialized")
	}
	if cfg.Backend.ConnectRetries != 3 {
		t.Errorf("Expected default connect_retries 3, got %d", cfg.Backend.ConnectRetries)
	}
}

func TestApplyDefaults_Badger(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	cfg := &Config{Backend: BackendConfig{Type: "badger"}}
	ApplyDefaults(cfg)

	want := filepath.Join(xdg, "dittotree", "data")
	if cfg.Backend.Badger["db_path"] != want {
		t.Errorf("Expected default db_path %q, got %v", want, cfg.Backend.Badger["db_path"])
	}
}

func TestApplyDefaults_BadgerInMemory(t *testing.T) {
	cfg := &Config{Backend: BackendConfig{
		Type:   "badger",
		Badger: map[string]any{"in_memory": true},
	}}
	ApplyDefaults(cfg)

	if _, ok := cfg.Backend.Badger["db_path"]; ok {
		t.Error("Expected no db_path for in-memory badger")
	}
}

func TestApplyDefaults_Redis(t *testing.T) {
	cfg := &Config{Backend: BackendConfig{Type: "redis"}}
	ApplyDefaults(cfg)

	if cfg.Backend.Redis["addr"] != DefaultRedisAddr {
		t.Errorf("Expected default redis addr %q, got %v", DefaultRedisAddr, cfg.Backend.Redis["addr"])
	}
}

func TestApplyDefaults_RateLimitBurst(t *testing.T) {
	cfg := &Config{Backend: BackendConfig{RateLimit: RateLimitConfig{RequestsPerSecond: 250}}}
	ApplyDefaults(cfg)

	if cfg.Backend.RateLimit.Burst != 250 {
		t.Errorf("Expected burst to default to the rate, got %d", cfg.Backend.RateLimit.Burst)
	}
}

func TestApplyDefaults_Tree(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Tree.CounterKey != "NODE_COUNTER" {
		t.Errorf("Expected default counter key 'NODE_COUNTER', got %q", cfg.Tree.CounterKey)
	}
	if cfg.Tree.MaxSymlinkHops != 40 {
		t.Errorf("Expected default max_symlink_hops 40, got %d", cfg.Tree.MaxSymlinkHops)
	}
}

func TestApplyDefaults_MetricsAndGC(t *testing.T) {
	cfg := &Config{GC: GCConfig{BatchSize: 10}}
	ApplyDefaults(cfg)

	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Expected default metrics port %d, got %d", DefaultMetricsPort, cfg.Metrics.Port)
	}
	if cfg.GC.Interval != time.Hour {
		t.Errorf("Expected default gc interval 1h, got %s", cfg.GC.Interval)
	}
	if cfg.GC.BatchSize != 10 {
		t.Errorf("Expected explicit gc batch size preserved, got %d", cfg.GC.BatchSize)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "WARN", Format: "json", Output: "stderr"},
		Backend: BackendConfig{
			Type:           "redis",
			Redis:          map[string]any{"addr": "cache:6380"},
			ConnectRetries: 7,
		},
		Tree: TreeConfig{KeyPrefix: "t1:", CounterKey: "IDS", MaxSymlinkHops: 5},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Format != "json" || cfg.Logging.Output != "stderr" {
		t.Errorf("Expected explicit logging values preserved, got %+v", cfg.Logging)
	}
	if cfg.Backend.Redis["addr"] != "cache:6380" {
		t.Errorf("Expected explicit redis addr preserved, got %v", cfg.Backend.Redis["addr"])
	}
	if cfg.Backend.ConnectRetries != 7 {
		t.Errorf("Expected explicit connect_retries preserved, got %d", cfg.Backend.ConnectRetries)
	}
	if cfg.Tree.CounterKey != "IDS" || cfg.Tree.MaxSymlinkHops != 5 {
		t.Errorf("Expected explicit tree values preserved, got %+v", cfg.Tree)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Fatalf("Default config should be valid, got: %v", err)
	}
}
