// Package globals provides shared flag structures and utilities for CLI commands.
package globals

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// MergeFlags holds the flags of every command that builds a merge client.
type MergeFlags struct {
	Layers []string
}

// MergeFlagSet returns the merge flags bound to flags.
func MergeFlagSet(flags *MergeFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("merge", pflag.ContinueOnError)
	fs.StringSliceVarP(&flags.Layers, "layers", "l", nil,
		"Task layers owned by the working file (default: from config or file name)")
	return fs
}

// AddMergeFlags adds the merge flags to a command.
func AddMergeFlags(cmd *cobra.Command) *MergeFlags {
	flags := &MergeFlags{}
	cmd.Flags().AddFlagSet(MergeFlagSet(flags))
	return flags
}
