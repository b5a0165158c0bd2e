package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace":   TRACE,
		"DEBUG":   DEBUG,
		" info ":  INFO,
		"warning": WARN,
		"warn":    WARN,
		"error":   ERROR,
		"":        INFO,
		"verbose": INFO,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestLogger_ConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger("loader", &buf, "")
	require.NoError(t, err)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[INFO] [loader] shown 2")

	buf.Reset()
	l.SetLevel(ERROR)
	l.Warn("quiet")
	l.Error("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "[ERROR] [loader] loud")
	assert.NoError(t, l.Close())
}

func TestLogger_FileGetsAllLevels(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l, err := newLogger("storage", &buf, dir)
	require.NoError(t, err)

	l.Trace("trace line")
	l.Info("info line")
	require.NoError(t, l.Close())
	assert.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, "storage_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[TRACE] [storage] trace line")
	assert.Contains(t, string(data), "[INFO] [storage] info line")
	assert.NotContains(t, buf.String(), "trace line")
}

func TestHexDump(t *testing.T) {
	assert.Equal(t, "No data", HexDump(nil))

	dump := HexDump(bytes.Repeat([]byte{0xab}, 300))
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")
	assert.Len(t, lines, 16)
}
