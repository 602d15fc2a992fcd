package commands

import (
	"github.com/spf13/cobra"
)

var cpCmd = &cobra.Command{
	Use:   "cp <src> <dst>",
	Short: "Copy a subtree",
	Long: `Copy the subtree at src to dst. Every copied node gets a new id.

Symlinks inside the subtree are copied as links. dst must not exist.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ns.CopyPath(commandContext(cmd), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(cpCmd)
}
