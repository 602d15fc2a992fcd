package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveFollow bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Print the canonical path",
	Long: `Resolve every symlink along path and print the canonical path and node id.

A symlink in last position is followed only with --follow.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		canonical, id, err := ns.RealNode(commandContext(cmd), args[0], resolveFollow)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "%s\t%d\n", canonical, id)
		return nil
	},
}

var readlinkCmd = &cobra.Command{
	Use:   "readlink <path>",
	Short: "Print a symlink's target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, ok, err := ns.GetTarget(commandContext(cmd), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: not a symlink", args[0])
		}
		fmt.Fprintln(out(cmd), target)
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVarP(&resolveFollow, "follow", "L", false, "Follow a symlink in last position")
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(readlinkCmd)
}
