package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var dumpFormat string

var dumpCmd = &cobra.Command{
	Use:   "dump [path]",
	Short: "Print a subtree as YAML or JSON",
	Long: `Print the subtree at path (default "/") with ids and attributes.

Symlinks are shown with their target and are not descended into.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "o", "yaml", "Output format (yaml, json)")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	path := "/"
	if len(args) > 0 {
		path = args[0]
	}

	snap, err := ns.Snapshot(commandContext(cmd), path)
	if err != nil {
		return err
	}

	switch dumpFormat {
	case "yaml":
		enc := yaml.NewEncoder(out(cmd))
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out(cmd))
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", dumpFormat)
	}
}
