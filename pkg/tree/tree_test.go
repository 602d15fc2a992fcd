package tree

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/dittotree/pkg/kv"
	"github.com/marmos91/dittotree/pkg/kv/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()

		counter, ok, err := tr.kv.Get(ctx, DefaultCounterKey)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "-9223372036854775807", counter)

		info, err := tr.GetNodeInfo(ctx, Root)
		require.NoError(t, err)
		assert.Equal(t, Attributes{"name": "root"}, info)

		assertStats(t, tr, 0, 1)
	})
}

func TestInitIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		id := mustCreate(t, tr, "/foo")

		require.NoError(t, tr.Init(ctx))

		got, err := tr.GetNodeAtPath(ctx, "/foo")
		require.NoError(t, err)
		assert.Equal(t, id, got)
		assertStats(t, tr, 1, 2)
	})
}

func TestInitRestoresMissingRoot(t *testing.T) {
	ctx := context.Background()
	tr := New(memory.NewMemoryStore(), Config{})
	require.NoError(t, tr.Init(ctx))
	_, err := tr.kv.Del(ctx, tr.nodeKey(Root))
	require.NoError(t, err)

	require.NoError(t, tr.Init(ctx))

	info, err := tr.GetNodeInfo(ctx, Root)
	require.NoError(t, err)
	assert.Equal(t, "root", info[AttrName])
}

func TestAllocateUniqueUnderConcurrency(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		const workers, per = 4, 25

		var mu sync.Mutex
		seen := make(map[NodeID]struct{})
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < per; i++ {
					id, err := tr.Allocate(ctx)
					if !assert.NoError(t, err) {
						return
					}
					mu.Lock()
					seen[id] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, seen, workers*per)
		_, rootTaken := seen[Root]
		assert.False(t, rootTaken)
	})
}

func TestCreateNode(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()

		id, err := tr.CreateNode(ctx, Attributes{"size": "1TB"})
		require.NoError(t, err)
		assert.Greater(t, int64(id), int64(Root))

		require.NoError(t, tr.CreateNodeWithID(ctx, id, Attributes{"owner": "alice"}))

		info, err := tr.GetNodeInfo(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, Attributes{"size": "1TB", "owner": "alice"}, info)
	})
}

func TestGetNodeInfoMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		info, err := tr.GetNodeInfo(context.Background(), NodeID(12345))
		require.NoError(t, err)
		assert.Empty(t, info)
	})
}

func TestCloneNode(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		id, err := tr.CreateChildNode(ctx, "/foo", Attributes{"size": "10"})
		require.NoError(t, err)

		clone, err := tr.CloneNode(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, id, clone)

		info, err := tr.GetNodeInfo(ctx, clone)
		require.NoError(t, err)
		assert.Equal(t, Attributes{"size": "10"}, info)

		_, err = tr.CloneNode(ctx, NodeID(999999))
		assertCode(t, err, ErrBrokenPath)
	})
}

func TestKeyPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryStore()
	a := New(store, Config{KeyPrefix: "a:"})
	b := New(store, Config{KeyPrefix: "b:"})
	require.NoError(t, a.Init(ctx))
	require.NoError(t, b.Init(ctx))

	mustCreate(t, a, "/only-in-a")

	_, err := b.GetNodeAtPath(ctx, "/only-in-a")
	assertCode(t, err, ErrBrokenPath)

	keys, err := kv.NewClient(store).Keys(ctx, "a:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"a:NODE_COUNTER",
		"a:NODE:" + Root.String(),
		"a:NODE:" + strconv.FormatInt(int64(Root)+1, 10),
		"a:TREE:/",
	}, keys)
}

type recordingMetrics struct {
	mu   sync.Mutex
	ops  map[string]int
	errs map[string]int
	hops int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{ops: map[string]int{}, errs: map[string]int{}}
}

func (m *recordingMetrics) RecordOperation(op string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op]++
	if err != nil {
		m.errs[op]++
	}
}

func (m *recordingMetrics) RecordBackendOperation(string, time.Duration, error) {}

func (m *recordingMetrics) ObserveSymlinkHops(hops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hops += hops
}

func TestMetricsRecorded(t *testing.T) {
	ctx := context.Background()
	rec := newRecordingMetrics()
	tr := New(memory.NewMemoryStore(), Config{Metrics: rec})
	require.NoError(t, tr.Init(ctx))

	mustCreate(t, tr, "/foo")
	mustLink(t, tr, "/foo", "/me")
	_, err := tr.GetNodeAtPath(ctx, "/me/missing")
	require.Error(t, err)

	assert.Equal(t, 1, rec.ops["Init"])
	assert.Equal(t, 1, rec.ops["CreateChildNode"])
	assert.Equal(t, 1, rec.ops["CreateSymlink"])
	assert.Equal(t, 1, rec.errs["GetNodeAtPath"])
	assert.Equal(t, 1, rec.hops)
}

func TestTreeErrorMatching(t *testing.T) {
	err := newError(ErrBrokenPath, "/x", "no such entry")

	assert.Equal(t, "no such entry: /x", err.Error())
	assert.True(t, errors.Is(err, &TreeError{Code: ErrBrokenPath}))
	assert.False(t, errors.Is(err, &TreeError{Code: ErrAlreadyExists}))
	assert.Equal(t, "broken path", ErrBrokenPath.String())
}
