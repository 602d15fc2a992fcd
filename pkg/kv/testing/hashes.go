package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittotree/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunHashTests(test *testing.T) {
	test.Run("HSetHGetAll", suite.TestHSet_HGetAll)
	test.Run("HGetMissing", suite.TestHGet_Missing)
	test.Run("HMGet", suite.TestHMGet)
	test.Run("HSetNX", suite.TestHSetNX)
	test.Run("HDelRemovesEmptyHash", suite.TestHDel_RemovesEmptyHash)
	test.Run("HDelMissing", suite.TestHDel_Missing)
	test.Run("WrongType", suite.TestHashes_WrongType)
}

func (suite *StoreTestSuite) TestHSet_HGetAll(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)

	require.NoError(test, c.HSet(ctx, "h", map[string]string{"a": "1", "b": "2"}))
	require.NoError(test, c.HSet(ctx, "h", map[string]string{"b": "3", "c": "4"}))

	all, err := c.HGetAll(ctx, "h")
	require.NoError(test, err)
	assert.Equal(test, map[string]string{"a": "1", "b": "3", "c": "4"}, all)

	v, ok, err := c.HGet(ctx, "h", "b")
	require.NoError(test, err)
	assert.True(test, ok)
	assert.Equal(test, "3", v)
}

// TestHGet_Missing verifies absent keys and fields read as not found, and
// HGETALL of an absent key is an empty map.
func (suite *StoreTestSuite) TestHGet_Missing(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)

	_, ok, err := c.HGet(ctx, "h", "f")
	require.NoError(test, err)
	assert.False(test, ok)

	require.NoError(test, c.HSet(ctx, "h", map[string]string{"a": "1"}))
	_, ok, err = c.HGet(ctx, "h", "f")
	require.NoError(test, err)
	assert.False(test, ok)

	all, err := c.HGetAll(ctx, "nothing")
	require.NoError(test, err)
	assert.NotNil(test, all)
	assert.Empty(test, all)
}

func (suite *StoreTestSuite) TestHMGet(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.HSet(ctx, "h", map[string]string{"a": "1", "b": "2"}))

	got, err := c.HMGet(ctx, "h", "a", "missing", "b")

	require.NoError(test, err)
	assert.Equal(test, map[string]string{"a": "1", "b": "2"}, got)
}

func (suite *StoreTestSuite) TestHSetNX(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)

	wrote, err := c.HSetNX(ctx, "h", "f", "first")
	require.NoError(test, err)
	assert.True(test, wrote)

	wrote, err = c.HSetNX(ctx, "h", "f", "second")
	require.NoError(test, err)
	assert.False(test, wrote)

	v, _, err := c.HGet(ctx, "h", "f")
	require.NoError(test, err)
	assert.Equal(test, "first", v)
}

// TestHDel_RemovesEmptyHash verifies a hash disappears with its last field.
func (suite *StoreTestSuite) TestHDel_RemovesEmptyHash(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.HSet(ctx, "h", map[string]string{"a": "1", "b": "2"}))

	n, err := c.HDel(ctx, "h", "a", "zzz")
	require.NoError(test, err)
	assert.Equal(test, int64(1), n)

	exists, err := c.Exists(ctx, "h")
	require.NoError(test, err)
	assert.True(test, exists)

	_, err = c.HDel(ctx, "h", "b")
	require.NoError(test, err)

	exists, err = c.Exists(ctx, "h")
	require.NoError(test, err)
	assert.False(test, exists)
}

func (suite *StoreTestSuite) TestHDel_Missing(test *testing.T) {
	n, err := suite.newClient(test).HDel(context.Background(), "h", "a")

	require.NoError(test, err)
	assert.Equal(test, int64(0), n)
}

func (suite *StoreTestSuite) TestHashes_WrongType(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.Set(ctx, "s", "v"))

	_, _, err := c.HGet(ctx, "s", "f")
	assert.ErrorIs(test, err, kv.ErrWrongType)

	err = c.HSet(ctx, "s", map[string]string{"f": "v"})
	assert.ErrorIs(test, err, kv.ErrWrongType)
}
