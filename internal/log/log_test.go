package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, lvl Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(lvl)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestStructuredFields(t *testing.T) {
	buf := capture(t, LevelInfo)

	Info("meetings fetched", "count", 3, "source", "api")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "meetings fetched", line["message"])
	assert.Equal(t, float64(3), line["count"])
	assert.Equal(t, "api", line["source"])
}

func TestErrorIncludesErr(t *testing.T) {
	buf := capture(t, LevelInfo)

	Error("fetch failed", errors.New("boom"), "url", "http://x")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "http://x", line["url"])
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelWarn)

	Debug("hidden")
	Info("hidden")
	assert.Zero(t, buf.Len())

	Warn("shown", "dangling")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "dangling")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
