package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherAppliesLogLevelChange(t *testing.T) {
	dataDir := t.TempDir()
	cfg := &Config{DataDir: dataDir, LogLevel: "info", LogFormat: "json"}

	w, err := NewWatcher(cfg)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	envPath := filepath.Join(dataDir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("USERDEMO_LOG_LEVEL=debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		level, _ := w.LoggingSettings()
		return level == "debug"
	}, 5*time.Second, 50*time.Millisecond, "log level change was not applied")
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dataDir := t.TempDir()
	cfg := &Config{DataDir: dataDir, LogLevel: "info", LogFormat: "json"}

	w, err := NewWatcher(cfg)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	other := filepath.Join(dataDir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("USERDEMO_LOG_LEVEL=debug\n"), 0o600))

	time.Sleep(300 * time.Millisecond)
	level, _ := w.LoggingSettings()
	assert.Equal(t, "info", level)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir(), LogLevel: "info"}
	w, err := NewWatcher(cfg)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
}
