package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("USERDEMO_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.BackendHost)
	assert.Equal(t, 8080, cfg.BackendPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.LogFormat)
	assert.Zero(t, cfg.RequestDelay)
	assert.True(t, cfg.SeedDemoData)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("USERDEMO_DATA_DIR", t.TempDir())
	t.Setenv("USERDEMO_HOST", "127.0.0.1")
	t.Setenv("USERDEMO_PORT", "9999")
	t.Setenv("USERDEMO_METRICS_PORT", "9100")
	t.Setenv("USERDEMO_LOG_LEVEL", "debug")
	t.Setenv("USERDEMO_LOG_FORMAT", "json")
	t.Setenv("USERDEMO_REQUEST_DELAY", "250ms")
	t.Setenv("USERDEMO_SEED_DEMO_DATA", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.BackendHost)
	assert.Equal(t, 9999, cfg.BackendPort)
	assert.Equal(t, 9100, cfg.MetricsPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestDelay)
	assert.False(t, cfg.SeedDemoData)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("USERDEMO_DATA_DIR", t.TempDir())

	t.Setenv("USERDEMO_PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
	t.Setenv("USERDEMO_PORT", "")

	t.Setenv("USERDEMO_REQUEST_DELAY", "soon")
	_, err = Load()
	assert.Error(t, err)
	t.Setenv("USERDEMO_REQUEST_DELAY", "-5s")
	_, err = Load()
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("true", false))
	assert.True(t, parseBool("1", false))
	assert.True(t, parseBool("YES", false))
	assert.False(t, parseBool("off", true))
	assert.True(t, parseBool("nonsense", true))
	assert.False(t, parseBool("nonsense", false))
}
