package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/agentstation/assetpipe/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.InfoLevel))

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")
	logging.Err(assert.AnError).Msg("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warning message")
	assert.Contains(t, output, assert.AnError.Error())
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithAsset(ctx, "chair")
	ctx = logging.WithDirection(ctx, "push")

	logging.FromContext(ctx).Info().Msg("merge complete")

	testLogger.AssertContains(t, "chair")
	testLogger.AssertContains(t, "push")
	testLogger.AssertContains(t, "merge complete")
}

func TestNewLoggers(t *testing.T) {
	t.Run("New writes JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.New(&buf)
		logger.Info().Msg("json test")
		assert.Contains(t, buf.String(), `"message":"json test"`)
	})

	t.Run("NewJSON with nil writer", func(t *testing.T) {
		assert.NotPanics(t, func() { _ = logging.NewJSON(nil) })
	})
}

func TestWithCreatesChild(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	var buf bytes.Buffer
	logging.SetDefault(zerolog.New(&buf).Level(zerolog.InfoLevel))

	child := logging.With().Str("component", "hooks").Logger()
	child.Info().Msg("with context")

	assert.Contains(t, buf.String(), `"component":"hooks"`)
}

func TestTestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	tl.Logger.Info().Msg("message 1")
	tl.Logger.Error().Msg("message 2")

	tl.AssertContains(t, "message 1")
	tl.AssertNotContains(t, "message 3")
	tl.AssertCount(t, 2)
	assert.True(t, tl.ContainsAll("message 1", "message 2"))

	tl.Clear()
	assert.Equal(t, 0, tl.Count())
}
