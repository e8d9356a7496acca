package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "workout_tracker", cfg.Database.Name)
	assert.Equal(t, "mongo", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 8.0, cfg.Calendar.PointerDistance)
	assert.Equal(t, 250*time.Millisecond, cfg.Calendar.TouchDelay)
	assert.Equal(t, 5.0, cfg.Calendar.TouchTolerance)
	assert.Equal(t, 10, cfg.RateLimit.LoginPerMinute)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
database:
  name: "tracker_test"
jwt:
  secret: "from-file"
  expiration: "90m"
calendar:
  touch_delay: "400ms"
redis:
  enabled: true
  addr: "redis:6379"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "tracker_test", cfg.Database.Name)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 90*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 400*time.Millisecond, cfg.Calendar.TouchDelay)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoadConfig_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [::"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
