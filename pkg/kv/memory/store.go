// Package memory provides an in-process kv.Store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/marmos91/dittotree/pkg/kv"
)

// MemoryStore implements kv.Store using a Go map.
//
// It is suitable for tests, ephemeral namespaces and single-process tools.
// Nothing survives Close.
//
// Thread Safety:
// A single read-write mutex serializes batches, so every Exec is atomic and
// isolated. A batch that fails part way is rolled back before the lock is
// released.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]*kv.Entry
	closed bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*kv.Entry)}
}

// undoRecord remembers the value a key held before the batch first wrote it.
type undoRecord struct {
	key  string
	prev *kv.Entry
}

// memTxn applies a batch directly to the map, journaling the first write to
// each key so the batch can be undone.
type memTxn struct {
	data    map[string]*kv.Entry
	touched map[string]struct{}
	undo    []undoRecord
}

func (t *memTxn) Load(key string) (*kv.Entry, error) {
	return t.data[key], nil
}

func (t *memTxn) Save(key string, e *kv.Entry) error {
	if _, ok := t.touched[key]; !ok {
		t.touched[key] = struct{}{}
		t.undo = append(t.undo, undoRecord{key: key, prev: t.data[key]})
	}
	if e == nil {
		delete(t.data, key)
		return nil
	}
	t.data[key] = e
	return nil
}

func (t *memTxn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		r := t.undo[i]
		if r.prev == nil {
			delete(t.data, r.key)
		} else {
			t.data[r.key] = r.prev
		}
	}
}

// Exec applies ops atomically.
func (s *MemoryStore) Exec(ctx context.Context, ops []*kv.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.ErrClosed
	}

	txn := &memTxn{data: s.data, touched: make(map[string]struct{})}
	if err := kv.Apply(txn, ops); err != nil {
		txn.rollback()
		return err
	}
	return nil
}

// Keys returns the keys starting with prefix in lexical order.
func (s *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, kv.ErrClosed
	}

	keys := make([]string, 0)
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Healthcheck fails only once the store is closed.
func (s *MemoryStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return kv.ErrClosed
	}
	return nil
}

// Close drops all data.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	return nil
}
