package commands

import (
	"fmt"

	"github.com/marmos91/dittotree/pkg/tree"
	"github.com/spf13/cobra"
)

var (
	mkdirAttrs     map[string]string
	mkdirExclusive bool
	mkdirNoFollow  bool
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a node",
	Long: `Create a node at path and print its id.

The parent is resolved through symlinks unless --no-follow is given. An
existing child with the same name is replaced unless --exclusive is given.

Examples:
  dittotree mkdir /projects
  dittotree mkdir /projects/alpha --attr owner=ops --attr tier=gold
  dittotree mkdir /projects/alpha --exclusive`,
	Args: cobra.ExactArgs(1),
	RunE: runMkdir,
}

func init() {
	mkdirCmd.Flags().StringToStringVar(&mkdirAttrs, "attr", nil, "Node attribute as key=value (repeatable)")
	mkdirCmd.Flags().BoolVar(&mkdirExclusive, "exclusive", false, "Fail if the name is already taken")
	mkdirCmd.Flags().BoolVar(&mkdirNoFollow, "no-follow", false, "Do not resolve the parent path through symlinks")
	rootCmd.AddCommand(mkdirCmd)
}

func runMkdir(cmd *cobra.Command, args []string) error {
	var opts []tree.CreateOption
	if mkdirExclusive {
		opts = append(opts, tree.WithExclusive())
	}
	if mkdirNoFollow {
		opts = append(opts, tree.WithoutParentResolution())
	}

	var attrs tree.Attributes
	if len(mkdirAttrs) > 0 {
		attrs = tree.Attributes(mkdirAttrs)
	}

	id, err := ns.CreateChildNode(commandContext(cmd), args[0], attrs, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintln(out(cmd), id)
	return nil
}
