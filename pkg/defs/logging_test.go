package defs_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlibx402/go-x402/pkg/defs"
)

func TestParseLogLevelStr(t *testing.T) {
	t.Run("accepts known levels case-insensitively", func(t *testing.T) {
		level, err := defs.ParseLogLevelStr("DEBUG")
		require.NoError(t, err)
		assert.Equal(t, defs.LogLevelDebug, level)

		level, err = defs.ParseLogLevelStr("warn")
		require.NoError(t, err)
		assert.Equal(t, defs.LogLevelWarn, level)
	})

	t.Run("rejects unknown levels", func(t *testing.T) {
		_, err := defs.ParseLogLevelStr("verbose")
		assert.Error(t, err)
	})
}

func TestParseHandlerTypeStr(t *testing.T) {
	handler, err := defs.ParseHandlerTypeStr("JSON")
	require.NoError(t, err)
	assert.Equal(t, defs.JSONHandler, handler)

	_, err = defs.ParseHandlerTypeStr("logfmt")
	assert.Error(t, err)
}

func TestNewSlogHandler(t *testing.T) {
	t.Run("json handler emits json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(defs.JSONHandler.NewSlogHandler(&buf, defs.LogLevelInfo))

		logger.Info("hello")

		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("level threshold is honored", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(defs.TextHandler.NewSlogHandler(&buf, defs.LogLevelWarn))

		logger.Info("suppressed")
		logger.Warn("emitted")

		assert.NotContains(t, buf.String(), "suppressed")
		assert.Contains(t, buf.String(), "emitted")
	})
}
