package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/assetpipe"
	"github.com/agentstation/assetpipe/internal/snapshot"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    ClientFunc: func(context.Context, string, []string) (assetpipe.Client, error) {
//	        return client, nil
//	    },
//	}
//	cmd := status.NewCommand(mock)
type Mock struct {
	ClientFunc       func(ctx context.Context, file string, layers []string) (assetpipe.Client, error)
	StoreFunc        func() *snapshot.Store
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Client returns a client using the mock function or nil.
func (m *Mock) Client(ctx context.Context, file string, layers []string) (assetpipe.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(ctx, file, layers)
	}
	return nil, nil
}

// Store returns the mock function's store or a new one.
func (m *Mock) Store() *snapshot.Store {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	return snapshot.NewStore()
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
