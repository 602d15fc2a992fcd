package tree

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/marmos91/dittotree/pkg/kv"
	"github.com/marmos91/dittotree/pkg/kv/badger"
	"github.com/marmos91/dittotree/pkg/kv/memory"
	"github.com/marmos91/dittotree/pkg/kv/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	name string
	open func(t *testing.T) kv.Store
}

var backends = []backend{
	{
		name: "memory",
		open: func(t *testing.T) kv.Store {
			return memory.NewMemoryStore()
		},
	},
	{
		name: "redis",
		open: func(t *testing.T) kv.Store {
			mr := miniredis.RunT(t)
			store := redis.NewRedisStore(redis.RedisStoreConfig{Addr: mr.Addr()})
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	},
	{
		name: "badger",
		open: func(t *testing.T) kv.Store {
			store, err := badger.NewBadgerStore(context.Background(), badger.BadgerStoreConfig{
				InMemory:         true,
				BlockCacheSizeMB: 8,
				IndexCacheSizeMB: 4,
			})
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	},
}

// forEachBackend runs fn once per backend against a freshly initialized tree.
func forEachBackend(t *testing.T, fn func(t *testing.T, tr *Tree)) {
	t.Helper()
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			tr := New(b.open(t), Config{})
			require.NoError(t, tr.Init(context.Background()))
			fn(t, tr)
		})
	}
}

func mustCreate(t *testing.T, tr *Tree, path string) NodeID {
	t.Helper()
	id, err := tr.CreateChildNode(context.Background(), path, nil)
	require.NoError(t, err, "create %s", path)
	return id
}

func mustLink(t *testing.T, tr *Tree, target, path string) NodeID {
	t.Helper()
	id, err := tr.CreateSymlink(context.Background(), target, path)
	require.NoError(t, err, "link %s -> %s", path, target)
	return id
}

func assertStats(t *testing.T, tr *Tree, dirs, nodes int) {
	t.Helper()
	st, err := tr.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dirs, st.Directories, "adjacency entries")
	assert.Equal(t, nodes, st.Nodes, "node records")
}

func assertCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, IsCode(err, code), "expected %s, got %v", code, err)
}
