package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var lsLong bool

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List the children of a node",
	Long: `List the children of path (default "/"), following symlinks.

With -l each entry shows its id, and symlinks show their target.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "Show ids and symlink targets")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	path := "/"
	if len(args) > 0 {
		path = args[0]
	}

	entries, err := ns.ReadDir(ctx, path)
	if err != nil {
		return err
	}

	if !lsLong {
		for _, e := range entries {
			fmt.Fprintln(out(cmd), e.Name)
		}
		return nil
	}

	w := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
	for _, e := range entries {
		attrs, err := ns.GetNodeInfo(ctx, e.ID)
		if err != nil {
			return err
		}
		if target, _, ok := attrs.Link(); ok {
			fmt.Fprintf(w, "%d\t%s -> %s\n", e.ID, e.Name, target)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\n", e.ID, e.Name)
	}
	return w.Flush()
}
