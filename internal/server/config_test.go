package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.ListenAddress())
	assert.Equal(t, "info", cfg.Server.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadServerConfigParsesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "server.hcl")
	content := `
server {
  address   = "0.0.0.0"
  port      = 9090
  log_level = "debug"
  seed      = 42
}

rooms {
  small_blind     = 25
  big_blind       = 50
  start_chips     = 5000
  turn_timeout_ms = 30000
  think_delay_ms  = 800
  grace_ms        = 15000
  ai_iterations   = 250
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, int64(42), cfg.Server.Seed)

	roomCfg := cfg.RoomConfig()
	assert.Equal(t, 25, roomCfg.SmallBlind)
	assert.Equal(t, 50, roomCfg.BigBlind)
	assert.Equal(t, 5000, roomCfg.StartChips)
	assert.Equal(t, 30*time.Second, roomCfg.TurnTimeout)
	assert.Equal(t, 800*time.Millisecond, roomCfg.ThinkDelay)
	assert.Equal(t, 15*time.Second, roomCfg.Grace)
	assert.Equal(t, 250, roomCfg.AIIterations)
}

func TestLoadServerConfigRejectsBadHCL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {"), 0o644))

	_, err := LoadServerConfig(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cfg := DefaultServerConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.Rooms = &RoomDefaults{SmallBlind: 50, BigBlind: 10}
	assert.Error(t, cfg.Validate())
}
