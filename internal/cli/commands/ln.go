package commands

import (
	"fmt"

	"github.com/marmos91/dittotree/pkg/tree"
	"github.com/spf13/cobra"
)

var lnExclusive bool

var lnCmd = &cobra.Command{
	Use:   "ln <target> <path>",
	Short: "Create a symlink",
	Long: `Create a symlink at path pointing at target and print its id.

The target must exist. Links to links are allowed.

Examples:
  dittotree ln /projects/alpha /current`,
	Args: cobra.ExactArgs(2),
	RunE: runLn,
}

func init() {
	lnCmd.Flags().BoolVar(&lnExclusive, "exclusive", false, "Fail if the name is already taken")
	rootCmd.AddCommand(lnCmd)
}

func runLn(cmd *cobra.Command, args []string) error {
	var opts []tree.CreateOption
	if lnExclusive {
		opts = append(opts, tree.WithExclusive())
	}

	id, err := ns.CreateSymlink(commandContext(cmd), args[0], args[1], opts...)
	if err != nil {
		return err
	}

	fmt.Fprintln(out(cmd), id)
	return nil
}
