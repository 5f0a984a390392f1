package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "JSON", slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("rows dropped", "count", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug must be filtered at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "rows dropped", entry["msg"])
	assert.Equal(t, float64(3), entry["count"])
	assert.NotContains(t, entry, slog.SourceKey)
}

func TestNew_TextWithSourceAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "", slog.LevelDebug)

	logger.Debug("parsed", "rows", 10)

	out := buf.String()
	assert.Contains(t, out, "msg=parsed")
	assert.Contains(t, out, "rows=10")
	assert.Contains(t, out, "source=")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")

	assert.False(t, FromEnv(false).Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, FromEnv(true).Enabled(context.Background(), slog.LevelDebug))
	assert.NotNil(t, NewLogger())
	assert.NotNil(t, NewTextLogger())
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := WithFields(New(&buf, "json", slog.LevelInfo), map[string]any{"job": "unemployment"})

	logger.Info("start")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "unemployment", entry["job"])
}

func TestContextRoundTrip(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	logger := New(&bytes.Buffer{}, "text", slog.LevelInfo)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}
