package commands

import (
	"github.com/spf13/cobra"
)

var mvCmd = &cobra.Command{
	Use:   "mv <src> <dst>",
	Short: "Move a node and its subtree",
	Long: `Move the node at src to dst. Node ids are preserved.

Both paths are taken literally: a symlink named in the parent of src or dst
is not followed. dst must not exist.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ns.MoveNode(commandContext(cmd), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(mvCmd)
}
