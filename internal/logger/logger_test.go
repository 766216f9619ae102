package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prepfunnel.log")

	log, err := New(Options{Mode: "prod", Level: "error", File: path})
	require.NoError(t, err)

	log.With("component", "test").Info("batch built", "delivered", 5)
	log.Debug("dropped", "reason", "below file level")
	log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `"message":"batch built"`)
	assert.Contains(t, out, `"delivered":5`)
	assert.Contains(t, out, `"component":"test"`)
	assert.False(t, strings.Contains(out, "below file level"))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Warn("ignored", "k", "v")
	log.Sync()
}
