package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statFollow bool

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show a node's id, canonical path and attributes",
	Long: `Show the node reached by path. A symlink in last position is reported
itself unless --follow is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runStat,
}

func init() {
	statCmd.Flags().BoolVarP(&statFollow, "follow", "L", false, "Follow a symlink in last position")
	rootCmd.AddCommand(statCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	canonical, id, err := ns.RealNode(ctx, args[0], statFollow)
	if err != nil {
		return err
	}
	attrs, err := ns.GetNodeInfo(ctx, id)
	if err != nil {
		return err
	}

	w := out(cmd)
	fmt.Fprintf(w, "Path: %s\n", canonical)
	fmt.Fprintf(w, "ID: %d\n", id)
	if target, targetNode, ok := attrs.Link(); ok {
		fmt.Fprintf(w, "Symlink: %s (node %d)\n", target, targetNode)
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s=%s\n", k, attrs[k])
	}
	return nil
}
