// Package publish provides the publish command.
package publish

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/assetpipe/internal/cmd/application"
	"github.com/agentstation/assetpipe/internal/cmd/cmdutil"
	"github.com/agentstation/assetpipe/internal/cmd/globals"
	"github.com/agentstation/assetpipe/internal/publish"
)

// NewCommand creates the publish command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *globals.MergeFlags
	var typeName string

	cmd := &cobra.Command{
		Use:     "publish FILE",
		GroupID: "merge",
		Short:   "Write the working file as a new published version",
		Args:    cobra.ExactArgs(1),
		Long: `Publish copies the working file to the next version of a publish type.
Active publishes are marked as library assets with the configured catalog
ID. A staged version becomes the sync target of every later push and pull.`,
		Example: `  assetpipe publish chair/chair-modeling.yaml
  assetpipe publish chair/chair-modeling.yaml --type staged`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmdutil.WorkingFile(args)
			if err != nil {
				return err
			}
			t, err := publish.ParseType(typeName)
			if err != nil {
				return err
			}
			client, err := app.Client(cmd.Context(), file, flags.Layers)
			if err != nil {
				cmdutil.PrintHint(cmd, err)
				return err
			}
			path, err := client.Publish(cmd.Context(), file, t)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	flags = globals.AddMergeFlags(cmd)
	cmd.Flags().StringVarP(&typeName, "type", "t", publish.Active.String(), "Publish type: publish, staged, review")
	return cmd
}
