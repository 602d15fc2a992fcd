// Package gc provides garbage collection for orphaned namespace records.
//
// The garbage collector identifies and removes node records and adjacency
// entries that can no longer be reached from the root. This can occur due to:
//   - Process crashes during a delete (levels are unlinked one batch at a time)
//   - Backend failures between a delete's unlink and record removal
//   - Duplicate child names silently replacing an earlier child
//   - Entries created under a symlink's literal path
//
// A record is reachable when a walk from the root visits it. Records are
// listed before the walk starts, so records created during a run are never
// collected. A concurrent move can hide a subtree from the walk; run the
// collector while the namespace is quiet, or in dry-run mode first.
package gc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittotree/internal/logger"
	"github.com/marmos91/dittotree/pkg/tree"
)

// Collector performs periodic garbage collection on a tree.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	tree     *tree.Tree
	config   Config
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	started  bool
	mu       sync.Mutex
}

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether background collection runs (default: false)
	Enabled bool

	// Interval is how often to run garbage collection (default: 24h)
	Interval time.Duration

	// BatchSize is how many orphaned records to delete per batch (default: 500)
	BatchSize int

	// DryRun logs what would be deleted without deleting (default: false)
	DryRun bool
}

// NewCollector creates a new garbage collector.
//
// The collector is initialized but not started. Call Start() to begin
// background collection or RunNow() for a single pass.
func NewCollector(t *tree.Tree, config Config) *Collector {
	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}

	return &Collector{
		tree:   t,
		config: config,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins background garbage collection. Subsequent calls are no-ops.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true

	logger.Info("Starting garbage collector: interval=%s batch_size=%d dry_run=%v",
		c.config.Interval, c.config.BatchSize, c.config.DryRun)

	go c.worker()
}

// Stop stops the garbage collector and waits for an in-progress run to
// finish, or for ctx to expire. Safe to call multiple times.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return nil
	}

	logger.Info("Stopping garbage collector...")
	c.stopOnce.Do(func() { close(c.stopCh) })

	select {
	case <-c.doneCh:
		logger.Info("Garbage collector stopped successfully")
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow triggers an immediate garbage collection run and blocks until it
// completes or ctx is cancelled.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running garbage collection (manual trigger)...")
	return c.collect(ctx)
}

// worker is the background goroutine that runs periodic garbage collection.
func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			return
		}
	}
}

// collect performs a single garbage collection run:
//  1. List all node records and adjacency entries
//  2. Walk the tree from the root, marking reached ids and paths
//  3. Compute orphaned = existing - reached
//  4. Batch delete orphaned records
func (c *Collector) collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	// Phase 1: list before walking so newer records are never considered
	ids, err := c.tree.NodeIDs(ctx)
	if err != nil {
		return stats, err
	}
	paths, err := c.tree.AdjacencyPaths(ctx)
	if err != nil {
		return stats, err
	}
	stats.ExistingNodes = uint64(len(ids))
	stats.ExistingEntries = uint64(len(paths))

	// Phase 2: mark
	reachedIDs := make(map[tree.NodeID]struct{}, len(ids))
	reachedPaths := make(map[string]struct{}, len(paths))
	err = c.tree.Walk(ctx, "/", func(p string, id tree.NodeID, attrs tree.Attributes) error {
		reachedIDs[id] = struct{}{}
		// Lookups never read an entry at a symlink's own path.
		if _, _, isLink := attrs.Link(); !isLink {
			reachedPaths[p] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to walk tree: %w", err)
	}
	stats.ReachableCount = uint64(len(reachedIDs))

	// Phase 3: sweep set
	var orphanIDs []tree.NodeID
	for _, id := range ids {
		if _, ok := reachedIDs[id]; !ok && id != tree.Root {
			orphanIDs = append(orphanIDs, id)
		}
	}
	var orphanPaths []string
	for _, p := range paths {
		if _, ok := reachedPaths[p]; !ok {
			orphanPaths = append(orphanPaths, p)
		}
	}
	stats.OrphanedNodes = uint64(len(orphanIDs))
	stats.OrphanedEntries = uint64(len(orphanPaths))

	if len(orphanIDs) == 0 && len(orphanPaths) == 0 {
		logger.Info("GC: No orphaned records found")
		stats.EndTime = time.Now()
		return stats, nil
	}

	logger.Info("GC: Found %d orphaned node records and %d orphaned adjacency entries",
		stats.OrphanedNodes, stats.OrphanedEntries)

	if c.config.DryRun {
		for i, id := range orphanIDs {
			if i == 10 {
				logger.Info("  ... and %d more nodes", len(orphanIDs)-10)
				break
			}
			logger.Info("  - node %s", id)
		}
		for i, p := range orphanPaths {
			if i == 10 {
				logger.Info("  ... and %d more entries", len(orphanPaths)-10)
				break
			}
			logger.Info("  - entry %s", p)
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	// Phase 4: delete
	for i := 0; i < len(orphanIDs); i += c.config.BatchSize {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}
		batch := orphanIDs[i:min(i+c.config.BatchSize, len(orphanIDs))]
		c.sweep(ctx, stats, batch, nil)
	}
	for i := 0; i < len(orphanPaths); i += c.config.BatchSize {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}
		batch := orphanPaths[i:min(i+c.config.BatchSize, len(orphanPaths))]
		c.sweep(ctx, stats, nil, batch)
	}

	stats.EndTime = time.Now()
	logger.Info("GC: Completed - deleted %d records, %d failed, duration=%s",
		stats.DeletedCount, stats.FailedCount, stats.Duration())

	return stats, nil
}

func (c *Collector) sweep(ctx context.Context, stats *Stats, ids []tree.NodeID, paths []string) {
	n := uint64(len(ids) + len(paths))
	removed, err := c.tree.PurgeRecords(ctx, ids, paths)
	if err != nil {
		logger.Warn("GC: Batch delete failed: %v", err)
		stats.FailedCount += n
		return
	}
	// Records already gone count as deleted; another run got there first.
	stats.DeletedCount += n
	logger.Debug("GC: Deleted batch of %d records (%d present)", n, removed)
}

// Stats contains statistics from a garbage collection run.
type Stats struct {
	StartTime       time.Time // When collection started
	EndTime         time.Time // When collection ended
	ExistingNodes   uint64    // Node records found in the backend
	ExistingEntries uint64    // Adjacency entries found in the backend
	ReachableCount  uint64    // Nodes reached by walking from the root
	OrphanedNodes   uint64    // Node records not reached
	OrphanedEntries uint64    // Adjacency entries not reached
	DeletedCount    uint64    // Orphaned records deleted
	FailedCount     uint64    // Orphaned records that failed to delete
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("nodes=%d entries=%d reachable=%d orphaned_nodes=%d orphaned_entries=%d deleted=%d failed=%d duration=%s",
		s.ExistingNodes, s.ExistingEntries, s.ReachableCount, s.OrphanedNodes,
		s.OrphanedEntries, s.DeletedCount, s.FailedCount, s.Duration())
}
