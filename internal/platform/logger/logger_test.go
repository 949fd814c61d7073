package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewWithWriter(t *testing.T) {
	t.Run("json by default", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "info", "").Info("screening completed", "is_match", true)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "screening completed", line["msg"])
		assert.Equal(t, true, line["is_match"])
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "warn", "text").Info("dropped")
		assert.Empty(t, buf.String())
	})
}
