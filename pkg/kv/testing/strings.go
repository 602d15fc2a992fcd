package testing

import (
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/marmos91/dittotree/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunStringTests(test *testing.T) {
	test.Run("GetMissing", suite.TestGet_Missing)
	test.Run("SetGet", suite.TestSet_Get)
	test.Run("SetNX", suite.TestSetNX)
	test.Run("IncrFromMinInt64", suite.TestIncr_FromMinInt64)
	test.Run("IncrMissingKey", suite.TestIncr_MissingKey)
	test.Run("IncrNotInteger", suite.TestIncr_NotInteger)
	test.Run("WrongType", suite.TestStrings_WrongType)
}

// TestGet_Missing verifies that reading an absent key is not an error.
func (suite *StoreTestSuite) TestGet_Missing(test *testing.T) {
	c := suite.newClient(test)

	v, ok, err := c.Get(context.Background(), "missing")

	require.NoError(test, err)
	assert.False(test, ok)
	assert.Empty(test, v)
}

func (suite *StoreTestSuite) TestSet_Get(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)

	require.NoError(test, c.Set(ctx, "k", "v1"))
	require.NoError(test, c.Set(ctx, "k", "v2"))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(test, err)
	assert.True(test, ok)
	assert.Equal(test, "v2", v)
}

// TestSetNX verifies only the first writer wins.
func (suite *StoreTestSuite) TestSetNX(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)

	wrote, err := c.SetNX(ctx, "k", "first")
	require.NoError(test, err)
	assert.True(test, wrote)

	wrote, err = c.SetNX(ctx, "k", "second")
	require.NoError(test, err)
	assert.False(test, wrote)

	v, _, err := c.Get(ctx, "k")
	require.NoError(test, err)
	assert.Equal(test, "first", v)
}

// TestIncr_FromMinInt64 covers the counter seeding used for node ids.
func (suite *StoreTestSuite) TestIncr_FromMinInt64(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)

	require.NoError(test, c.Set(ctx, "counter", strconv.FormatInt(math.MinInt64, 10)))

	n, err := c.Incr(ctx, "counter")
	require.NoError(test, err)
	assert.Equal(test, int64(math.MinInt64+1), n)

	n, err = c.Incr(ctx, "counter")
	require.NoError(test, err)
	assert.Equal(test, int64(math.MinInt64+2), n)
}

func (suite *StoreTestSuite) TestIncr_MissingKey(test *testing.T) {
	c := suite.newClient(test)

	n, err := c.Incr(context.Background(), "counter")

	require.NoError(test, err)
	assert.Equal(test, int64(1), n)
}

func (suite *StoreTestSuite) TestIncr_NotInteger(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.Set(ctx, "k", "abc"))

	_, err := c.Incr(ctx, "k")

	assert.ErrorIs(test, err, kv.ErrNotInteger)
}

// TestStrings_WrongType verifies string commands reject hash keys.
func (suite *StoreTestSuite) TestStrings_WrongType(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.HSet(ctx, "h", map[string]string{"f": "v"}))

	_, _, err := c.Get(ctx, "h")
	assert.ErrorIs(test, err, kv.ErrWrongType)

	_, err = c.Incr(ctx, "h")
	assert.ErrorIs(test, err, kv.ErrWrongType)
}
