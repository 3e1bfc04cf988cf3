// Package discover provides the discover command.
package discover

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/assetpipe/internal/cmd/application"
	"github.com/agentstation/assetpipe/internal/cmd/cmdutil"
	"github.com/agentstation/assetpipe/internal/cmd/globals"
	"github.com/agentstation/assetpipe/internal/cmd/output"
)

// NewCommand creates the discover command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *globals.MergeFlags
	var commit bool

	cmd := &cobra.Command{
		Use:     "discover FILE",
		GroupID: "inspect",
		Short:   "Find unowned entities and untracked sub-items",
		Args:    cobra.ExactArgs(1),
		Long: `Discover reports the ownership changes the next merge would commit:
entities without an owner, sub-items without a record, items owned by a
layer the working file does not own, and records whose sub-item is gone.

With --commit the changes are applied and the working file is saved.`,
		Example: `  assetpipe discover chair/chair-rigging.yaml
  assetpipe discover chair/chair-rigging.yaml --commit`,
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
			doc, err := app.Store().Load(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			report, err := client.Discover(ctx, doc)
			if err != nil {
				return err
			}
			if err := cmdutil.Render(cmd, app, &output.DiscoveryView{Report: report}); err != nil {
				return err
			}
			if !commit || report.Empty() {
				return nil
			}
			if err := client.Commit(ctx, doc, report); err != nil {
				return err
			}
			if err := app.Store().Save(doc, file); err != nil {
				return err
			}
			app.Logger().Info().Str("file", file).Msg("Committed ownership discovery")
			return nil
		},
	}

	flags = globals.AddMergeFlags(cmd)
	cmd.Flags().BoolVar(&commit, "commit", false, "Apply the discovered changes and save the working file")
	return cmd
}
