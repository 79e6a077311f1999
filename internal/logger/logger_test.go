package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutput_WritesFormattedMessage(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("polling task %s", "AX1")
	Debug("hidden at info level")

	out := buf.String()
	assert.Contains(t, out, "polling task AX1")
	assert.Contains(t, out, "[info]")
	assert.NotContains(t, out, "hidden at info level")
}

func TestInitFileOnly_CreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	path, err := InitFileOnly(dir)
	require.NoError(t, err)
	t.Cleanup(Close)

	Warn("gate check %d", 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gate check 1")
	assert.Contains(t, string(data), `"level":"warn"`)
}
