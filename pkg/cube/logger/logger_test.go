package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Config{Format: "json"}, zerolog.InfoLevel)
	l.Error().Str("op", "sync").Str("target", "AAPL").Msg("operation failed")
	l.Debug().Msg("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "sync", rec["op"])
	assert.Equal(t, "AAPL", rec["target"])
	assert.Contains(t, rec, "time")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Config{NoColor: true}, zerolog.DebugLevel)
	l.Info().Str("ticker", "MSFT").Msg("synced")
	assert.Contains(t, buf.String(), "synced")
	assert.Contains(t, buf.String(), "ticker=MSFT")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.log")
	l, err := New(Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)
	l.Info().Msg("dropped")
	l.Warn().Msg("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}
