// Package status provides the status command.
package status

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/assetpipe/internal/cmd/application"
	"github.com/agentstation/assetpipe/internal/cmd/cmdutil"
	"github.com/agentstation/assetpipe/internal/cmd/globals"
	"github.com/agentstation/assetpipe/internal/cmd/output"
)

// NewCommand creates the status command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *globals.MergeFlags

	cmd := &cobra.Command{
		Use:     "status FILE",
		GroupID: "inspect",
		Short:   "Show ownership of the working file",
		Args:    cobra.ExactArgs(1),
		Long: `Status lists the owner of every group, item, shared entity and sub-item
record of the working file, together with its sync target and what
ownership discovery would change. The file is not modified.`,
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
			st, err := client.Status(cmd.Context(), file)
			if err != nil {
				return err
			}
			return cmdutil.Render(cmd, app, &output.StatusView{Status: st})
		},
	}

	flags = globals.AddMergeFlags(cmd)
	return cmd
}
