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

func TestDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Profile)
	assert.Equal(t, "PASTE_YOUR_URL_HERE", cfg.WebAppURL)
	assert.Empty(t, cfg.AssistURL)
	assert.Equal(t, defaultDeveloperEmail, cfg.DeveloperEmail)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 120*time.Second, cfg.ScreensaverTimeout)
	assert.Contains(t, cfg.HomeDir, ".scdash")
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
webapp_url: https://script.example.com/exec/
assist_url: https://assist.example.com
developer_email: dev@corp.test
log_level: debug
refresh_interval: 30s
screensaver_timeout: 5m
`)
	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "https://script.example.com/exec", cfg.WebAppURL, "trailing slash is trimmed")
	assert.Equal(t, "https://assist.example.com", cfg.AssistURL)
	assert.Equal(t, "dev@corp.test", cfg.DeveloperEmail)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Minute, cfg.ScreensaverTimeout)
}

func TestProfileOverridesBase(t *testing.T) {
	path := writeConfig(t, `
webapp_url: https://script.example.com/exec
log_level: info
profiles:
  staging:
    webapp_url: https://staging.example.com/exec
    log_level: debug
`)
	cfg, err := Load(path, "staging")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Profile)
	assert.Equal(t, "https://staging.example.com/exec", cfg.WebAppURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval, "unset profile fields keep base values")
}

func TestUnknownProfile(t *testing.T) {
	path := writeConfig(t, "webapp_url: https://script.example.com/exec\n")
	_, err := Load(path, "production")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"production"`)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
webapp_url: https://script.example.com/exec
log_level: info
`)
	t.Setenv("SCDASH_WEBAPP_URL", "https://env.example.com/exec/")
	t.Setenv("SCDASH_LOG_LEVEL", "trace")
	t.Setenv("SCDASH_DEVELOPER_EMAIL", "env-dev@corp.test")
	t.Setenv("SCDASH_REFRESH_INTERVAL", "15s")
	t.Setenv("SCDASH_SCREENSAVER_TIMEOUT", "not-a-duration")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/exec", cfg.WebAppURL)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Equal(t, "env-dev@corp.test", cfg.DeveloperEmail)
	assert.Equal(t, 15*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 120*time.Second, cfg.ScreensaverTimeout, "an unparseable duration is ignored")
}

func TestMalformedFile(t *testing.T) {
	path := writeConfig(t, "webapp_url: [this is\n  not: valid\n")
	_, err := Load(path, "")
	require.Error(t, err)
}

func TestSocketAndStatePaths(t *testing.T) {
	cfg := Default()
	cfg.HomeDir = "/var/lib/scdash"

	assert.Equal(t, "/var/lib/scdash/scdash.sock", cfg.Socket())
	assert.Equal(t, "/var/lib/scdash/session.json", cfg.SessionFile())
	assert.Equal(t, "/var/lib/scdash/prefs.json", cfg.PrefsFile())

	cfg.SocketPath = "/tmp/custom.sock"
	assert.Equal(t, "/tmp/custom.sock", cfg.Socket())
}
