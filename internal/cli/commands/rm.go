package commands

import (
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Delete nodes and their subtrees",
	Long: `Delete each path and everything below it.

A symlink in last position is deleted itself; its target is left alone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		for _, p := range args {
			if err := ns.DeleteNode(ctx, p); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
