package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &Options{Level: slog.LevelInfo, NoColor: true}))

	log.Debug("hidden")
	log.With("run_id", "r1").WithGroup("row").Warn("forbidden characters in name", "line", 7, slog.Group("item", "id", "42"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "WARN  forbidden characters in name")
	assert.Contains(t, out, " run_id=r1")
	assert.Contains(t, out, " row.line=7")
	assert.Contains(t, out, " row.item.id=42")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestPrettyHandler_Color(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, nil)).Error("rename failed")

	assert.Contains(t, buf.String(), red)
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "app.log")

	var console bytes.Buffer
	log, closer, err := New(Config{Level: "debug", File: path, NoColor: true}, &console)
	require.NoError(t, err)

	log.Debug("evaluating row", "line", 2)
	log.Info("audit finished", "rows", 10)
	require.NoError(t, closer.Close())

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "audit finished rows=10")
	assert.Contains(t, string(written), "evaluating row")
	assert.NotContains(t, string(written), "\033[")
	assert.Contains(t, console.String(), "audit finished")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	require.Error(t, err)

	_, _, err = New(Config{Level: "loud"}, &bytes.Buffer{})
	require.Error(t, err)
}
