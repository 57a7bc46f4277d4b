package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	// Missing file falls back to defaults.
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ratio", cfg.Detector.Policy)
	assert.Equal(t, 2.0, cfg.Detector.Ratio)
	assert.Equal(t, 100000.0, cfg.Detector.Threshold)
	assert.Equal(t, time.Hour, cfg.Detector.Cooldown())
	assert.Equal(t, "integer", cfg.Detector.Rounding)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.Interval())
	assert.True(t, cfg.Monitor.WarmUp)
	assert.Equal(t, "https://api.dexscreener.com", cfg.Provider.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)

	// An explicit file overrides the defaults.
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
monitor:
  interval_seconds: 60
  warm_up: false
detector:
  policy: threshold_cooldown
  threshold: 50000
  cooldown_seconds: 1800
  rounding: decimal
`), 0o644))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "threshold_cooldown", cfg.Detector.Policy)
	assert.Equal(t, 50000.0, cfg.Detector.Threshold)
	assert.Equal(t, 30*time.Minute, cfg.Detector.Cooldown())
	assert.Equal(t, "decimal", cfg.Detector.Rounding)
	assert.Equal(t, time.Minute, cfg.Monitor.Interval())
	assert.False(t, cfg.Monitor.WarmUp)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
