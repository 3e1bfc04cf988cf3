// Package application defines what commands need from the CLI application.
//
// Commands accept the Application interface rather than the concrete App
// type, so they can be tested with a Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func(ctx context.Context, file string, layers []string) (assetpipe.Client, error) {
//	        return testClient, nil
//	    },
//	}
//	cmd := pull.NewCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/assetpipe"
	"github.com/agentstation/assetpipe/internal/snapshot"
)

// Application provides the application interface that commands need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns a merge client for the working file. The task layer
	// file is looked up next to it. When layers is empty the local task
	// layers come from the configuration or from the file name. Hook files
	// are watched for as long as ctx lives.
	Client(ctx context.Context, file string, layers []string) (assetpipe.Client, error)

	// Store returns the shared snapshot store.
	Store() *snapshot.Store

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, markdown).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
