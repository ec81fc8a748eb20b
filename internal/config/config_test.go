package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMustLoad_ValidConfig(t *testing.T) {
	configContent := `
env: test
backend:
  base_url: "http://localhost:5000"
  timeout: 7s
session:
  token_file: "/tmp/complaints-console/token"
subscription:
  poll_interval: 10s
  reminder_interval: 30m
ops_server:
  address_ops: "localhost:9091"
  timeout_ops: 4s
  idle_timeout: 60s
`
	t.Setenv("CONFIG_PATH", writeConfig(t, configContent))

	cfg := MustLoad()

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "http://localhost:5000", cfg.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "/tmp/complaints-console/token", cfg.TokenFile)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, "localhost:9091", cfg.AddressOps)
}

func TestMustLoad_Defaults(t *testing.T) {
	configContent := `
env: local
backend:
  base_url: "http://localhost:5000"
session:
  token_file: "/tmp/complaints-console/token"
`
	t.Setenv("CONFIG_PATH", writeConfig(t, configContent))

	cfg := MustLoad()

	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Hour, cfg.ReminderInterval)
	assert.Equal(t, "localhost:9091", cfg.AddressOps)
	assert.Equal(t, 4*time.Second, cfg.TimeoutOps)
}

func TestConfig_String(t *testing.T) {
	configContent := `
env: test
backend:
  base_url: "http://localhost:5000"
session:
  token_file: "/tmp/complaints-console/token"
`
	t.Setenv("CONFIG_PATH", writeConfig(t, configContent))

	out := MustLoad().String()

	assert.Contains(t, out, "Env: test")
	assert.Contains(t, out, "BaseURL: http://localhost:5000")
	assert.Contains(t, out, "TokenFile: /tmp/complaints-console/token")
}
