// Package redis provides a kv.Store backed by a Redis server.
//
// The namespace layout maps onto native Redis types: string keys for the
// allocation counter and hashes for node and adjacency records. Any client
// speaking the same layout sees the same tree.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/marmos91/dittotree/internal/logger"
	"github.com/marmos91/dittotree/pkg/kv"
	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 512

// RedisStoreConfig contains connection settings for a standalone Redis.
type RedisStoreConfig struct {
	Addr     string
	Username string
	Password string
	DB       int

	// PoolSize is the maximum number of socket connections (0 = go-redis default)
	PoolSize int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisStore implements kv.Store over go-redis.
//
// Batches of more than one command are sent as a MULTI/EXEC transaction,
// so other clients never observe half of a batch. Redis does not roll back
// a transaction whose command fails at runtime; the first such error is
// returned and the remaining commands still apply.
type RedisStore struct {
	client redis.UniversalClient
	owned  bool
}

// NewRedisStore connects to Redis. It does not ping; call Healthcheck.
func NewRedisStore(config RedisStoreConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Username:     config.Username,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})
	logger.Debug("Created redis store: addr=%s db=%d", config.Addr, config.DB)
	return &RedisStore{client: client, owned: true}
}

// NewRedisStoreFromClient shares an existing client (single node, cluster or
// sentinel). Close leaves the client open.
func NewRedisStoreFromClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying go-redis client.
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

// queue adds op to pipe. It returns nil for commands that are no-ops and
// must not be sent (Redis rejects HSET, HDEL and DEL without arguments).
func queue(ctx context.Context, pipe redis.Pipeliner, op *kv.Op) redis.Cmder {
	switch op.Kind {
	case kv.OpGet:
		return pipe.Get(ctx, op.Key)
	case kv.OpSet:
		return pipe.Set(ctx, op.Key, op.Value, 0)
	case kv.OpSetNX:
		return pipe.SetNX(ctx, op.Key, op.Value, 0)
	case kv.OpIncr:
		return pipe.Incr(ctx, op.Key)
	case kv.OpHGet:
		return pipe.HGet(ctx, op.Key, op.Field)
	case kv.OpHMGet:
		if len(op.Fields) == 0 {
			return nil
		}
		return pipe.HMGet(ctx, op.Key, op.Fields...)
	case kv.OpHGetAll:
		return pipe.HGetAll(ctx, op.Key)
	case kv.OpHSet:
		if len(op.Values) == 0 {
			return nil
		}
		args := make([]interface{}, 0, 2*len(op.Values))
		for k, v := range op.Values {
			args = append(args, k, v)
		}
		return pipe.HSet(ctx, op.Key, args...)
	case kv.OpHSetNX:
		return pipe.HSetNX(ctx, op.Key, op.Field, op.Value)
	case kv.OpHDel:
		if len(op.Fields) == 0 {
			return nil
		}
		return pipe.HDel(ctx, op.Key, op.Fields...)
	case kv.OpDel:
		if len(op.Keys) == 0 {
			return nil
		}
		return pipe.Del(ctx, op.Keys...)
	case kv.OpExists:
		return pipe.Exists(ctx, op.Key)
	case kv.OpRename:
		return pipe.Rename(ctx, op.Key, op.Dst)
	}
	return nil
}

// translateError maps Redis error replies onto the kv sentinel errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "WRONGTYPE"):
		return fmt.Errorf("%w: %s", kv.ErrWrongType, msg)
	case strings.Contains(msg, "no such key"):
		return fmt.Errorf("%w: %s", kv.ErrNoSuchKey, msg)
	case strings.Contains(msg, "not an integer"), strings.Contains(msg, "would overflow"):
		return fmt.Errorf("%w: %s", kv.ErrNotInteger, msg)
	case errors.Is(err, redis.ErrClosed):
		return fmt.Errorf("%w: %s", kv.ErrClosed, msg)
	}
	return err
}

// collect copies the reply of cmd into op.
func collect(op *kv.Op, cmd redis.Cmder) error {
	if cmd == nil {
		if op.Kind == kv.OpHMGet {
			op.Map = map[string]string{}
		}
		return nil
	}

	err := cmd.Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return translateError(err)
	}

	switch c := cmd.(type) {
	case *redis.StringCmd:
		op.Str, op.Found = c.Val(), true
	case *redis.BoolCmd:
		op.Bool = c.Val()
	case *redis.IntCmd:
		op.Int = c.Val()
		if op.Kind == kv.OpExists {
			op.Bool = op.Int > 0
			op.Int = 0
		}
	case *redis.SliceCmd:
		op.Map = make(map[string]string, len(op.Fields))
		for i, v := range c.Val() {
			if s, ok := v.(string); ok && i < len(op.Fields) {
				op.Map[op.Fields[i]] = s
			}
		}
	case *redis.MapStringStringCmd:
		op.Map = c.Val()
		if op.Map == nil {
			op.Map = map[string]string{}
		}
	}
	return nil
}

// Exec sends ops in one round-trip.
func (s *RedisStore) Exec(ctx context.Context, ops []*kv.Op) error {
	if len(ops) == 0 {
		return nil
	}

	var pipe redis.Pipeliner
	if len(ops) > 1 {
		pipe = s.client.TxPipeline()
	} else {
		pipe = s.client.Pipeline()
	}

	cmds := make([]redis.Cmder, len(ops))
	queued := 0
	for i, op := range ops {
		op.Str, op.Found, op.Bool, op.Int, op.Map, op.Err = "", false, false, 0, nil, nil
		cmds[i] = queue(ctx, pipe, op)
		if cmds[i] != nil {
			queued++
		}
	}

	if queued > 0 {
		_, err := pipe.Exec(ctx)
		if err != nil && !errors.Is(err, redis.Nil) {
			// Command errors are reported per command below; anything else
			// (connection, context) means no reply was read.
			var replyErr redis.Error
			if !errors.As(err, &replyErr) {
				return translateError(err)
			}
		}
	}

	var first error
	for i, op := range ops {
		if err := collect(op, cmds[i]); err != nil {
			op.Err = err
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// escapeGlob quotes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Keys enumerates keys with SCAN. SCAN may return a key more than once, so
// results are de-duplicated before sorting.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(prefix) + "*"
	seen := make(map[string]struct{})

	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan %q: %w", prefix, translateError(err))
		}
		for _, k := range batch {
			seen[k] = struct{}{}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Healthcheck pings the server.
func (s *RedisStore) Healthcheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", translateError(err))
	}
	return nil
}

// Close closes the client if this store created it.
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
