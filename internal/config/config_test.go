package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.ControlTick)
	assert.Equal(t, DriverSim, cfg.Hardware.Driver)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 720*time.Hour, cfg.EventRetention)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	body := `
port: "9090"
log:
  level: debug
control:
  tick: 250ms
hardware:
  driver: serial
  port: /dev/ttyUSB1
  baud: 57600
store:
  driver: file
  path: /tmp/reg.ini
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.ControlTick)
	assert.Equal(t, DriverSerial, cfg.Hardware.Driver)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Hardware.Port)
	assert.Equal(t, 57600, cfg.Hardware.Baud)
	assert.Equal(t, StoreFile, cfg.Store.Driver)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("hardware:\n  driver: gpio\n"), 0o644))

	_, err := Load(dir)
	assert.ErrorIs(t, err, errUnknownHardware)
}

func TestLoad_RejectsTickOutOfRange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("control:\n  tick: 5s\n"), 0o644))

	_, err := Load(dir)
	assert.ErrorIs(t, err, errBadTick)
}
