package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittotree/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunKeyTests(test *testing.T) {
	test.Run("Del", suite.TestDel)
	test.Run("Exists", suite.TestExists)
	test.Run("Rename", suite.TestRename)
	test.Run("RenameOverwrites", suite.TestRename_Overwrites)
	test.Run("RenameMissing", suite.TestRename_Missing)
	test.Run("KeysByPrefix", suite.TestKeys_ByPrefix)
}

func (suite *StoreTestSuite) TestDel(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.Set(ctx, "a", "1"))
	require.NoError(test, c.HSet(ctx, "b", map[string]string{"f": "v"}))

	n, err := c.Del(ctx, "a", "b", "c")
	require.NoError(test, err)
	assert.Equal(test, int64(2), n)

	n, err = c.Del(ctx)
	require.NoError(test, err)
	assert.Equal(test, int64(0), n)
}

func (suite *StoreTestSuite) TestExists(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)

	ok, err := c.Exists(ctx, "a")
	require.NoError(test, err)
	assert.False(test, ok)

	require.NoError(test, c.Set(ctx, "a", "1"))
	ok, err = c.Exists(ctx, "a")
	require.NoError(test, err)
	assert.True(test, ok)
}

// TestRename verifies the value and its kind move to the new key.
func (suite *StoreTestSuite) TestRename(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.HSet(ctx, "TREE:/a", map[string]string{"x": "1"}))

	require.NoError(test, c.Rename(ctx, "TREE:/a", "TREE:/b"))

	ok, err := c.Exists(ctx, "TREE:/a")
	require.NoError(test, err)
	assert.False(test, ok)

	all, err := c.HGetAll(ctx, "TREE:/b")
	require.NoError(test, err)
	assert.Equal(test, map[string]string{"x": "1"}, all)
}

func (suite *StoreTestSuite) TestRename_Overwrites(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.Set(ctx, "src", "new"))
	require.NoError(test, c.HSet(ctx, "dst", map[string]string{"f": "old"}))

	require.NoError(test, c.Rename(ctx, "src", "dst"))

	v, ok, err := c.Get(ctx, "dst")
	require.NoError(test, err)
	assert.True(test, ok)
	assert.Equal(test, "new", v)
}

func (suite *StoreTestSuite) TestRename_Missing(test *testing.T) {
	err := suite.newClient(test).Rename(context.Background(), "nope", "dst")

	assert.ErrorIs(test, err, kv.ErrNoSuchKey)
}

// TestKeys_ByPrefix verifies prefix enumeration is exact and sorted.
func (suite *StoreTestSuite) TestKeys_ByPrefix(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	for _, k := range []string{"TREE:/b", "TREE:/a", "TREE:/a/c", "NODE:1", "TREEX"} {
		require.NoError(test, c.Set(ctx, k, "1"))
	}

	keys, err := c.Keys(ctx, "TREE:")
	require.NoError(test, err)
	assert.Equal(test, []string{"TREE:/a", "TREE:/a/c", "TREE:/b"}, keys)

	keys, err = c.Keys(ctx, "TREE:/a/")
	require.NoError(test, err)
	assert.Equal(test, []string{"TREE:/a/c"}, keys)

	keys, err = c.Keys(ctx, "MISSING:")
	require.NoError(test, err)
	assert.Empty(test, keys)
}
