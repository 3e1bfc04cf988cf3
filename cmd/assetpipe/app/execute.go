package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/assetpipe/internal/cmd/output"
	"github.com/agentstation/assetpipe/pkg/logging"
)

// Execute runs the assetpipe CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "assetpipe",
		Short:   "Task layer merges for shared assets",
		Version: a.version,
		Long: `Assetpipe lets several artists work on one asset at the same time.

Every artist works in their own copy of the asset and owns one or more of
its task layers, such as modeling, rigging or shading. Pull brings the work
of every other layer into the working copy. Push writes the working copy's
layers back into the published asset. Ownership of every group, item and
sub-item decides which side wins.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "merge",
		Title: "Merge Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "inspect",
		Title: "Inspection Commands:",
	})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is ./.assetpipe.yaml or $HOME/.assetpipe.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml, markdown")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("backup-dir", "", "directory for working file backups (default is the system temp dir)")
	flags.String("hooks-dir", "", "project hooks directory")

	rootCmd.SetVersionTemplate("assetpipe {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("config") {
		path, _ := flags.GetString("config")
		config, err := loadConfig(path)
		if err != nil {
			return err
		}
		a.config = config
	}
	a.config.UpdateFromFlags(flags)

	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

// ExitOnError is a helper that prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
