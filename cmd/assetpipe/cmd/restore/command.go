// Package restore provides the restore command.
package restore

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/assetpipe/internal/cmd/application"
	"github.com/agentstation/assetpipe/internal/cmd/cmdutil"
	"github.com/agentstation/assetpipe/internal/cmd/globals"
)

// NewCommand creates the restore command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *globals.MergeFlags

	cmd := &cobra.Command{
		Use:     "restore FILE",
		GroupID: "merge",
		Short:   "Replace the working file with its last pull backup",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmdutil.WorkingFile(args)
			if err != nil {
				return err
			}
			client, err := app.Client(cmd.Context(), file, flags.Layers)
			if err != nil {
				cmdutil.PrintHint(cmd, err)
				return err
			}
			if err := client.Restore(cmd.Context(), file); err != nil {
				cmdutil.PrintHint(cmd, err)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", file)
			return err
		},
	}

	flags = globals.AddMergeFlags(cmd)
	return cmd
}
