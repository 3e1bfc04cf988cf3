// Package pull provides the pull command.
package pull

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/assetpipe/internal/cmd/application"
	"github.com/agentstation/assetpipe/internal/cmd/cmdutil"
	"github.com/agentstation/assetpipe/internal/cmd/globals"
	"github.com/agentstation/assetpipe/internal/cmd/output"
)

// NewCommand creates the pull command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *globals.MergeFlags

	cmd := &cobra.Command{
		Use:     "pull FILE",
		GroupID: "merge",
		Short:   "Bring published work into the working file",
		Args:    cobra.ExactArgs(1),
		Long: `Pull merges the sync target into the working file. The sync target is
the latest staged version of the asset, or the latest active publish when
nothing is staged.

The command will:
• Commit ownership discovery on the working file
• Back up the working file
• Take every task layer the working file does not own from the sync target
• Keep active indices and animation actions of the working file
• Save the working file

On ownership conflicts nothing is saved and the conflicts are listed.`,
		Example: `  assetpipe pull chair/chair-rigging.yaml
  assetpipe pull chair/chair-work.yaml --layers rigging,shading`,
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

			result, err := client.Pull(cmd.Context(), file)
			if result != nil {
				if renderErr := cmdutil.Render(cmd, app, output.NewMergeView(result)); renderErr != nil {
					return renderErr
				}
			}
			if err != nil {
				cmdutil.PrintHint(cmd, err)
				return err
			}
			return nil
		},
	}

	flags = globals.AddMergeFlags(cmd)
	return cmd
}
