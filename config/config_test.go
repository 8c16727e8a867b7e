package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "acp-host", cfg.Server.Name)
	assert.Equal(t, ":8700", cfg.Server.Addr)
	assert.Equal(t, "mock", cfg.Backend.Provider)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
peers = ["http://peer-a:8700", "http://peer-b:8700"]

[server]
name = "philosopher-host"
addr = ":9000"

[backend]
provider = "openai"
model = "gpt-4o-mini"
base_url = "http://localhost:11434/v1"

[log]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "philosopher-host", cfg.Server.Name)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "openai", cfg.Backend.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Backend.BaseURL)
	assert.Equal(t, []string{"http://peer-a:8700", "http://peer-b:8700"}, cfg.Peers)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = ":9000"
`)
	t.Setenv("ACP_ADDR", ":7777")
	t.Setenv("ACP_BACKEND_API_KEY", "sk-test")
	t.Setenv("ACP_PEERS", "http://a:1, http://b:2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "sk-test", cfg.Backend.APIKey)
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, cfg.Peers)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
[backend]
provider = "carrier-pigeon"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
