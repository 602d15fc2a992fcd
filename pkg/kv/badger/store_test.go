package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/marmos91/dittotree/pkg/kv"
	kvtesting "github.com/marmos91/dittotree/pkg/kv/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(context.Background(), BadgerStoreConfig{
		DBPath: filepath.Join(t.TempDir(), "tree.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStore(t *testing.T) {
	suite := &kvtesting.StoreTestSuite{
		NewStore: func(t *testing.T) kv.Store {
			return newTestStore(t)
		},
	}
	suite.Run(t)
}

func TestBadgerStoreInMemory(t *testing.T) {
	store, err := NewBadgerStore(context.Background(), BadgerStoreConfig{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	c := kv.NewClient(store)
	require.NoError(t, c.Set(context.Background(), "k", "v"))

	v, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tree.db")

	store, err := NewBadgerStore(ctx, BadgerStoreConfig{DBPath: path})
	require.NoError(t, err)
	c := kv.NewClient(store)
	require.NoError(t, c.HSet(ctx, "NODE:1", map[string]string{"name": "foo"}))
	require.NoError(t, store.Close())

	store, err = NewBadgerStore(ctx, BadgerStoreConfig{DBPath: path})
	require.NoError(t, err)
	defer store.Close()

	name, ok, err := kv.NewClient(store).HGet(ctx, "NODE:1", "name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "foo", name)
}

func TestBadgerStoreClosed(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Healthcheck(context.Background()), kv.ErrClosed)
	_, err := store.Keys(context.Background(), "")
	assert.ErrorIs(t, err, kv.ErrClosed)
}
