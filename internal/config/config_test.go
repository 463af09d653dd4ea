package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
  log_path: logs/ordstack.log
store:
  path: data/orders.db
limits:
  - key: EDOLLAR
    period_days: 1
    max_abs: 10
sim:
  stages: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "data/orders.db", cfg.Store.Path)
	require.Len(t, cfg.Limits, 1)
	assert.Equal(t, "EDOLLAR", cfg.Limits[0].Key)
	assert.Equal(t, int64(10), cfg.Limits[0].MaxAbs)
	assert.Equal(t, 3, cfg.Sim.Stages)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  path: data/orders.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 2, cfg.Sim.Stages)
	assert.Empty(t, cfg.Limits)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := Load(writeConfig(t, "app:\n  log_level: loud\n"))
		assert.Error(t, err)
	})

	t.Run("bad limit period", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
limits:
  - key: EDOLLAR
    period_days: 0
    max_abs: 10
`))
		assert.Error(t, err)
	})
}
