package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("level filters output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&Config{LogLevel: "warn", LogFormat: "text"}, &buf)

		logger.Info("quiet")
		logger.Warn("loud")

		out := buf.String()
		assert.NotContains(t, out, "quiet")
		assert.Contains(t, out, "loud")
	})

	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&Config{LogLevel: "info", LogFormat: "json"}, &buf)

		logger.Info("structured", "bundle", "app")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "structured", record["msg"])
		assert.Equal(t, "app", record["bundle"])
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		assert.Equal(t, slog.LevelInfo, parseLevel("shouty"))
	})
}
