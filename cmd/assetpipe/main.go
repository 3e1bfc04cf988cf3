// Package main provides the entry point for the assetpipe CLI tool.
package main

import (
	"context"
	"os"

	"github.com/agentstation/assetpipe/cmd/assetpipe/app"
	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/logging"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	logging.ConfigureFromEnv()

	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	ctx, cancel := app.ContextWithSignals(context.Background())
	runErr := application.Execute(ctx, os.Args[1:])
	cancel()

	// Fresh context, the signal context may already be cancelled
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	if err := application.Shutdown(shutdownCtx); err != nil {
		application.Logger().Error().Err(err).Msg("Shutdown error")
	}
	shutdownCancel()

	app.ExitOnError(runErr)
}
