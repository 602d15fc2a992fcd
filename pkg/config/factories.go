package config

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/dittotree/internal/logger"
	"github.com/marmos91/dittotree/internal/ratelimiter"
	"github.com/marmos91/dittotree/internal/util"
	"github.com/marmos91/dittotree/pkg/kv"
	kvBadger "github.com/marmos91/dittotree/pkg/kv/badger"
	kvMemory "github.com/marmos91/dittotree/pkg/kv/memory"
	kvRedis "github.com/marmos91/dittotree/pkg/kv/redis"
	"github.com/marmos91/dittotree/pkg/metrics"
	"github.com/marmos91/dittotree/pkg/tree"
	"github.com/mitchellh/mapstructure"
)

// CreateStore creates a key-value backend based on configuration.
//
// The Type field selects the implementation; the matching type-specific map
// is decoded into that backend's options. The returned store is wrapped with
// rate limiting and instrumentation, and must be closed by the caller.
//
// Supported types:
//   - "memory": Uses pkg/kv/memory (process-local, lost on exit)
//   - "badger": Uses pkg/kv/badger (embedded, persistent)
//   - "redis": Uses pkg/kv/redis (remote, shared between processes)
func CreateStore(ctx context.Context, cfg *BackendConfig, m metrics.TreeMetrics) (kv.Store, error) {
	var (
		store kv.Store
		err   error
	)

	switch cfg.Type {
	case "memory":
		store, err = createMemoryStore(ctx, cfg.Memory)
	case "badger":
		store, err = createBadgerStore(ctx, cfg.Badger)
	case "redis":
		store, err = createRedisStore(ctx, cfg.Redis, cfg.ConnectRetries)
	default:
		return nil, fmt.Errorf("unknown backend type: %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit.RequestsPerSecond > 0 {
		logger.Debug("Backend rate limit: %d req/s (burst %d)", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		store = kv.NewRateLimitedStore(store, ratelimiter.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}

	return kv.NewInstrumentedStore(store, m), nil
}

// createMemoryStore creates an in-memory backend. It takes no options.
func createMemoryStore(ctx context.Context, options map[string]any) (kv.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(options) > 0 {
		logger.Warn("Ignoring %d option(s) for memory backend", len(options))
	}
	return kvMemory.NewMemoryStore(), nil
}

// createBadgerStore creates a BadgerDB-backed store.
func createBadgerStore(ctx context.Context, options map[string]any) (kv.Store, error) {
	type BadgerBackendConfig struct {
		DBPath           string `mapstructure:"db_path"`
		InMemory         bool   `mapstructure:"in_memory"`
		BlockCacheSizeMB int64  `mapstructure:"block_cache_size_mb"`
		IndexCacheSizeMB int64  `mapstructure:"index_cache_size_mb"`
	}

	var storeCfg BadgerBackendConfig
	if err := decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger backend config: %w", err)
	}

	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger backend: db_path is required")
	}

	store, err := kvBadger.NewBadgerStore(ctx, kvBadger.BadgerStoreConfig{
		DBPath:           storeCfg.DBPath,
		InMemory:         storeCfg.InMemory,
		BlockCacheSizeMB: storeCfg.BlockCacheSizeMB,
		IndexCacheSizeMB: storeCfg.IndexCacheSizeMB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger backend: %w", err)
	}

	return store, nil
}

// createRedisStore creates a Redis-backed store and waits for the server to
// answer a PING, retrying up to attempts times.
func createRedisStore(ctx context.Context, options map[string]any, attempts uint) (kv.Store, error) {
	type RedisBackendConfig struct {
		Addr         string        `mapstructure:"addr"`
		Username     string        `mapstructure:"username"`
		Password     string        `mapstructure:"password"`
		DB           int           `mapstructure:"db"`
		PoolSize     int           `mapstructure:"pool_size"`
		DialTimeout  time.Duration `mapstructure:"dial_timeout"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	}

	var storeCfg RedisBackendConfig
	if err := decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode redis backend config: %w", err)
	}

	if storeCfg.Addr == "" {
		return nil, fmt.Errorf("redis backend: addr is required")
	}

	store := kvRedis.NewRedisStore(kvRedis.RedisStoreConfig(storeCfg))

	err := util.Retry(ctx, func() error {
		return store.Healthcheck(ctx)
	}, util.ConnectRetryOptions(ctx, attempts)...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("redis backend at %s unreachable: %w", storeCfg.Addr, err)
	}

	logger.Info("Connected to redis at %s (db %d)", storeCfg.Addr, storeCfg.DB)
	return store, nil
}

// decode maps a free-form options section onto a typed config, accepting
// duration strings such as "5s".
func decode(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(options)
}

// CreateTree builds the store described by cfg and binds a tree to it.
//
// The tree is initialized (counter seeded, root present) before it is
// returned. The caller owns the returned store and must close it.
func CreateTree(ctx context.Context, cfg *Config) (*tree.Tree, kv.Store, error) {
	m := InitializeMetrics(cfg)

	store, err := CreateStore(ctx, &cfg.Backend, m)
	if err != nil {
		return nil, nil, err
	}

	t := tree.New(store, tree.Config{
		KeyPrefix:      cfg.Tree.KeyPrefix,
		CounterKey:     cfg.Tree.CounterKey,
		MaxSymlinkHops: cfg.Tree.MaxSymlinkHops,
		Metrics:        m,
	})

	if err := t.Init(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to initialize tree: %w", err)
	}

	return t, store, nil
}
