// Package push provides the push command.
package push

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/assetpipe"
	"github.com/agentstation/assetpipe/internal/cmd/application"
	"github.com/agentstation/assetpipe/internal/cmd/cmdutil"
	"github.com/agentstation/assetpipe/internal/cmd/globals"
	"github.com/agentstation/assetpipe/internal/cmd/output"
)

// NewCommand creates the push command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *globals.MergeFlags
	var noPull bool

	cmd := &cobra.Command{
		Use:     "push FILE",
		GroupID: "merge",
		Short:   "Write the working file's task layers into the sync target",
		Args:    cobra.ExactArgs(1),
		Long: `Push first pulls from the sync target, then merges the task layers owned
by the working file into the sync target and saves it. Actions of the sync
target are unassigned and the configured catalog ID is written onto its
asset root.

Use --no-pull to push without pulling first. The push is skipped when the
pull fails.`,
		Example: `  assetpipe push chair/chair-rigging.yaml
  assetpipe push chair/chair-rigging.yaml --no-pull`,
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

			var opts []assetpipe.SyncOption
			if noPull {
				opts = append(opts, assetpipe.SyncWithoutPull())
			}
			result, err := client.Sync(cmd.Context(), file, opts...)
			if result != nil {
				app.Logger().Debug().Str("target", result.Target).Msg("Synced")
				view := output.NewMergeView(result.Pull, result.Push)
				if len(view.Results) > 0 {
					if renderErr := cmdutil.Render(cmd, app, view); renderErr != nil {
						return renderErr
					}
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
	cmd.Flags().BoolVar(&noPull, "no-pull", false, "Push without pulling from the sync target first")
	return cmd
}
