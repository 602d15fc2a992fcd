package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marmos91/dittotree/internal/logger"
	"github.com/marmos91/dittotree/pkg/gc"
	"github.com/marmos91/dittotree/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	gcDryRun    bool
	gcBatchSize int
	gcWatch     bool
	gcInterval  time.Duration
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove records no longer reachable from the root",
	Long: `Walk the tree from the root and delete node records and adjacency entries
the walk never reached. Such records are left behind by interrupted deletes
and by creating a child over an existing one.

With --watch, gc runs once, then again every --interval until interrupted,
serving /metrics and /healthz on metrics.port when metrics are enabled.

Run gc while no other client is moving nodes: a subtree moved during the
walk can be missed and collected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gcCfg := gc.Config{
			Interval:  cfg.GC.Interval,
			BatchSize: cfg.GC.BatchSize,
			DryRun:    cfg.GC.DryRun || gcDryRun,
		}
		if gcBatchSize < 0 || gcInterval < 0 {
			return fmt.Errorf("--batch-size and --interval must not be negative")
		}
		if gcBatchSize > 0 {
			gcCfg.BatchSize = gcBatchSize
		}
		if gcInterval > 0 {
			gcCfg.Interval = gcInterval
		}

		ctx := commandContext(cmd)
		if !gcWatch {
			stats, err := gc.NewCollector(ns, gcCfg).RunNow(ctx)
			if err != nil {
				return err
			}
			printGCStats(cmd, stats, gcCfg.DryRun)
			return nil
		}

		return watchGC(ctx, cmd, gcCfg)
	},
}

func watchGC(ctx context.Context, cmd *cobra.Command, gcCfg gc.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gcCfg.Enabled = true
	collector := gc.NewCollector(ns, gcCfg)

	stats, err := collector.RunNow(ctx)
	if err != nil {
		return err
	}
	printGCStats(cmd, stats, gcCfg.DryRun)

	serverErr := make(chan error, 1)
	if cfg.Metrics.Enabled {
		server := metrics.NewServer(metrics.ServerConfig{
			Port:   cfg.Metrics.Port,
			Health: store.Healthcheck,
		})
		go func() { serverErr <- server.Start(ctx) }()
	}

	collector.Start()
	logger.Info("Watching for orphaned records every %s (Ctrl+C to stop)", gcCfg.Interval)

	select {
	case <-ctx.Done():
		err = nil
	case err = <-serverErr:
		stop()
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if serr := collector.Stop(stopCtx); err == nil {
		err = serr
	}
	return err
}

func printGCStats(cmd *cobra.Command, stats *gc.Stats, dryRun bool) {
	w := out(cmd)
	fmt.Fprintf(w, "Node records: %d (%d reachable)\n", stats.ExistingNodes, stats.ReachableCount)
	fmt.Fprintf(w, "Adjacency entries: %d\n", stats.ExistingEntries)
	fmt.Fprintf(w, "Orphaned: %d nodes, %d entries\n", stats.OrphanedNodes, stats.OrphanedEntries)
	if dryRun {
		fmt.Fprintln(w, "Dry run: nothing deleted")
		return
	}
	fmt.Fprintf(w, "Deleted: %d (%d failed)\n", stats.DeletedCount, stats.FailedCount)
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "Report orphans without deleting them")
	gcCmd.Flags().IntVar(&gcBatchSize, "batch-size", 0, "Records removed per backend batch (default from config)")
	gcCmd.Flags().BoolVarP(&gcWatch, "watch", "w", false, "Keep running and collect every --interval")
	gcCmd.Flags().DurationVar(&gcInterval, "interval", 0, "Time between runs in watch mode (default from config)")
	rootCmd.AddCommand(gcCmd)
}
