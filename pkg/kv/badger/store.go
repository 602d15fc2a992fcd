// Package badger provides a persistent kv.Store backed by BadgerDB.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittotree/internal/logger"
	"github.com/marmos91/dittotree/internal/util"
	"github.com/marmos91/dittotree/pkg/kv"
)

// BadgerStore implements kv.Store on an embedded BadgerDB.
//
// Every key of the namespace maps 1:1 to a Badger key. Values are the
// JSON-encoded kv.Entry, so string and hash keys share one keyspace and
// kind mismatches are detected exactly like on Redis.
//
// Thread Safety:
// Each Exec runs in a single read-write Badger transaction. Badger's
// optimistic concurrency control aborts one of two conflicting transactions
// with ErrConflict; the batch is then retried from scratch, so batches are
// serializable without a store-level lock.
type BadgerStore struct {
	db *badger.DB

	mu     sync.RWMutex
	closed bool
}

// BadgerStoreConfig contains configuration for opening a BadgerDB store.
type BadgerStoreConfig struct {
	// DBPath is the directory where BadgerDB keeps its files.
	// Ignored when InMemory is set.
	DBPath string

	// InMemory runs Badger without touching disk.
	InMemory bool

	// BadgerOptions allows full customization of BadgerDB behavior.
	// If nil, defaults tuned for small namespace records are used.
	BadgerOptions *badger.Options

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64
}

// NewBadgerStore opens (or creates) a Badger database.
func NewBadgerStore(ctx context.Context, config BadgerStoreConfig) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		if config.InMemory {
			opts = badger.DefaultOptions("").WithInMemory(true)
		} else {
			opts = badger.DefaultOptions(config.DBPath)
		}

		// Namespace records are a few dozen bytes; compression does not pay.
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None)

		blockCacheMB := config.BlockCacheSizeMB
		if blockCacheMB == 0 {
			blockCacheMB = 64
		}
		indexCacheMB := config.IndexCacheSizeMB
		if indexCacheMB == 0 {
			indexCacheMB = 32
		}
		opts = opts.WithBlockCacheSize(blockCacheMB << 20)
		opts = opts.WithIndexCacheSize(indexCacheMB << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	logger.Debug("Opened badger store: path=%s in_memory=%v", config.DBPath, config.InMemory)
	return &BadgerStore{db: db}, nil
}

// badgerTxn adapts a Badger transaction to kv.Txn.
type badgerTxn struct {
	txn *badger.Txn
}

func (t *badgerTxn) Load(key string) (*kv.Entry, error) {
	item, err := t.txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var e kv.Entry
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &e)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &e, nil
}

func (t *badgerTxn) Save(key string, e *kv.Entry) error {
	if e == nil {
		return t.txn.Delete([]byte(key))
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return t.txn.Set([]byte(key), data)
}

func isConflict(err error) bool {
	return errors.Is(err, badger.ErrConflict)
}

// Exec applies ops in one Badger transaction, retrying on write conflicts.
func (s *BadgerStore) Exec(ctx context.Context, ops []*kv.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return kv.ErrClosed
	}

	return util.Retry(ctx, func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return kv.Apply(&badgerTxn{txn: txn}, ops)
		})
	}, util.ConflictRetryOptions(ctx, isConflict)...)
}

// Keys scans the prefix without fetching values.
func (s *BadgerStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, kv.ErrClosed
	}

	keys := make([]string, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.PrefetchValues = false
		iopts.Prefix = []byte(prefix)

		it := txn.NewIterator(iopts)
		defer it.Close()

		for it.Seek(iopts.Prefix); it.ValidForPrefix(iopts.Prefix); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// Healthcheck verifies the database accepts reads.
func (s *BadgerStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return kv.ErrClosed
	}

	return s.db.View(func(txn *badger.Txn) error {
		return nil
	})
}

// Close flushes and closes the database. Safe to call more than once.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
