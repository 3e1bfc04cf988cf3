package app

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/agentstation/assetpipe/cmd/assetpipe/cmd/diff"
	"github.com/agentstation/assetpipe/cmd/assetpipe/cmd/discover"
	"github.com/agentstation/assetpipe/cmd/assetpipe/cmd/publish"
	"github.com/agentstation/assetpipe/cmd/assetpipe/cmd/pull"
	"github.com/agentstation/assetpipe/cmd/assetpipe/cmd/push"
	"github.com/agentstation/assetpipe/cmd/assetpipe/cmd/restore"
	"github.com/agentstation/assetpipe/cmd/assetpipe/cmd/status"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Merge commands
	rootCmd.AddCommand(pull.NewCommand(a))
	rootCmd.AddCommand(push.NewCommand(a))
	rootCmd.AddCommand(publish.NewCommand(a))
	rootCmd.AddCommand(restore.NewCommand(a))

	// Inspection commands
	rootCmd.AddCommand(status.NewCommand(a))
	rootCmd.AddCommand(discover.NewCommand(a))
	rootCmd.AddCommand(diff.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.CreateVersionCommand())
	rootCmd.AddCommand(a.CreateManCommand())
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("assetpipe %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}

// CreateManCommand creates the man command.
func (a *App) CreateManCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "man",
		Short:  "Generate man page",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			header := &doc.GenManHeader{
				Title:   "ASSETPIPE",
				Section: "1",
				Source:  "assetpipe " + a.version,
				Manual:  "assetpipe Manual",
			}
			return doc.GenMan(cmd.Root(), header, cmd.OutOrStdout())
		},
	}
}
