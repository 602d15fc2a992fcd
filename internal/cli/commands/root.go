// Package commands implements the dittotree admin CLI.
//
// Every command except "config" loads the configuration, opens the configured
// backend and initializes the tree before running. The backend is closed when
// the command returns.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/marmos91/dittotree/internal/logger"
	"github.com/marmos91/dittotree/pkg/config"
	"github.com/marmos91/dittotree/pkg/kv"
	"github.com/marmos91/dittotree/pkg/tree"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"

	configPath string
	logLevel   string

	// Populated by PersistentPreRunE for commands that need a backend
	cfg   *config.Config
	ns    *tree.Tree
	store kv.Store
)

// SetVersion sets the version info for --version flag
func SetVersion(v, c string) {
	version = v
	commit = c
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)
}

var rootCmd = &cobra.Command{
	Use:   "dittotree",
	Short: "Hierarchical namespace over a key-value backend",
	Long: `dittotree manages a directory tree with symlinks stored in Redis, BadgerDB
or memory. Paths are absolute and slash-separated.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("dittotree version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/dittotree/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and closes the backend
// opened for it, if any.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := teardown(); err == nil {
		err = cerr
	}
	return err
}

// needsBackend reports whether cmd operates on the tree.
func needsBackend(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "config":
			return false
		}
	}
	return true
}

func setup(cmd *cobra.Command, args []string) error {
	if !needsBackend(cmd) {
		return nil
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	if err := configureLogging(&loaded.Logging); err != nil {
		return err
	}

	t, s, err := config.CreateTree(commandContext(cmd), loaded)
	if err != nil {
		return err
	}

	cfg, ns, store = loaded, t, s
	logger.Debug("Using %s backend", cfg.Backend.Type)
	if cfg.Backend.Type == "memory" {
		logger.Warn("Memory backend: the tree is discarded when this command exits; set backend.type to badger or redis to keep it")
	}
	return nil
}

func teardown() error {
	if store == nil {
		return nil
	}
	err := store.Close()
	store, ns = nil, nil
	return err
}

func configureLogging(lc *config.LoggingConfig) error {
	logger.SetLevel(lc.Level)
	logger.SetFormat(lc.Format)
	return logger.SetOutput(lc.Output)
}

// commandContext returns the command's context, never nil.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// out is where commands print results.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
