package common

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_QuietRestores(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("debug", &buf)

	func() {
		restore := logger.Quiet()
		defer restore()
		logger.Info().Msg("suppressed")
	}()
	logger.Info().Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "visible")
}

func TestLogger_QuietRestoresOnPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)

	func() {
		defer func() { _ = recover() }()
		restore := logger.Quiet()
		defer restore()
		panic("boom")
	}()
	logger.Warn().Msg("after panic")

	assert.Contains(t, buf.String(), "after panic")
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)
	logger.Info().Msg("info line")
	logger.Warn().Msg("warn line")

	assert.False(t, strings.Contains(buf.String(), "info line"))
	assert.True(t, strings.Contains(buf.String(), "warn line"))
}

func TestNewLoggerFromConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scorecard.log")
	logger, closeFn, err := NewLoggerFromConfig(LoggingConfig{Level: "info", Format: "json", FilePath: path})
	require.NoError(t, err)
	logger.Info().Str("ticker", "AAA").Msg("written")
	require.NoError(t, closeFn())

	assert.FileExists(t, path)
}
