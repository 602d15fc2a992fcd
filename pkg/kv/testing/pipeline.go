package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittotree/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunPipelineTests(test *testing.T) {
	test.Run("Results", suite.TestPipeline_Results)
	test.Run("SeesEarlierWrites", suite.TestPipeline_SeesEarlierWrites)
	test.Run("Empty", suite.TestPipeline_Empty)
	test.Run("ErrorReported", suite.TestPipeline_ErrorReported)
	if !suite.SkipRollback {
		test.Run("Rollback", suite.TestPipeline_Rollback)
	}
}

// TestPipeline_Results verifies every queued op receives its own reply.
func (suite *StoreTestSuite) TestPipeline_Results(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.HSet(ctx, "NODE:1", map[string]string{"name": "foo"}))
	require.NoError(test, c.HSet(ctx, "TREE:/", map[string]string{"foo": "1"}))

	p := c.Pipeline()
	name := p.HGet("TREE:/", "foo")
	missing := p.HGet("TREE:/", "bar")
	attrs := p.HGetAll("NODE:1")
	exists := p.Exists("NODE:2")
	assert.Equal(test, 4, p.Len())

	require.NoError(test, p.Exec(ctx))
	assert.Equal(test, 0, p.Len())

	assert.True(test, name.Found)
	assert.Equal(test, "1", name.Str)
	assert.False(test, missing.Found)
	assert.Equal(test, map[string]string{"name": "foo"}, attrs.Map)
	assert.False(test, exists.Bool)
}

// TestPipeline_SeesEarlierWrites verifies ops apply in order within a batch.
func (suite *StoreTestSuite) TestPipeline_SeesEarlierWrites(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)

	p := c.Pipeline()
	p.HSet("h", map[string]string{"a": "1"})
	p.Rename("h", "h2")
	all := p.HGetAll("h2")
	first := p.Incr("n")
	second := p.Incr("n")
	require.NoError(test, p.Exec(ctx))

	assert.Equal(test, map[string]string{"a": "1"}, all.Map)
	assert.Equal(test, int64(1), first.Int)
	assert.Equal(test, int64(2), second.Int)
}

func (suite *StoreTestSuite) TestPipeline_Empty(test *testing.T) {
	c := suite.newClient(test)
	p := c.Pipeline()
	p.HSet("h", nil)
	p.Del()

	assert.Equal(test, 0, p.Len())
	require.NoError(test, p.Exec(context.Background()))
}

func (suite *StoreTestSuite) TestPipeline_ErrorReported(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.Set(ctx, "s", "v"))

	p := c.Pipeline()
	bad := p.HGet("s", "f")
	err := p.Exec(ctx)

	assert.ErrorIs(test, err, kv.ErrWrongType)
	assert.ErrorIs(test, bad.Err, kv.ErrWrongType)
}

// TestPipeline_Rollback verifies a failing batch leaves no partial writes.
func (suite *StoreTestSuite) TestPipeline_Rollback(test *testing.T) {
	ctx := context.Background()
	c := suite.newClient(test)
	require.NoError(test, c.Set(ctx, "s", "v"))
	require.NoError(test, c.HSet(ctx, "h", map[string]string{"a": "1"}))

	p := c.Pipeline()
	p.HSet("h", map[string]string{"b": "2"})
	p.Del("s")
	p.Rename("missing", "x")
	require.Error(test, p.Exec(ctx))

	all, err := c.HGetAll(ctx, "h")
	require.NoError(test, err)
	assert.Equal(test, map[string]string{"a": "1"}, all)

	v, ok, err := c.Get(ctx, "s")
	require.NoError(test, err)
	assert.True(test, ok)
	assert.Equal(test, "v", v)
}
