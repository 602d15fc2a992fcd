package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the namespace and show backend counts",
	Long: `Seed the id counter and create the root node if they are missing, then
print how many node records and adjacency entries the backend holds.

Every command initializes the namespace on startup, so init is only needed
to prepare a backend ahead of time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := ns.Stats(commandContext(cmd))
		if err != nil {
			return err
		}
		w := out(cmd)
		fmt.Fprintf(w, "Backend: %s\n", cfg.Backend.Type)
		fmt.Fprintf(w, "Nodes: %d\n", stats.Nodes)
		fmt.Fprintf(w, "Directories: %d\n", stats.Directories)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
