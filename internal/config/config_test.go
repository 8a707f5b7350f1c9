package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateUserConfig keeps discovery-mode tests away from any coinclaw.yaml
// in the developer's real config dir.
func isolateUserConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
}

func TestLoadDefaults(t *testing.T) {
	isolateUserConfig(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "cookie.pkl", cfg.CookieName)
	assert.Equal(t, 5*time.Second, cfg.WaitTimeout)
	assert.Equal(t, 15*time.Second, cfg.LoginTimeout)
	assert.Equal(t, "log", cfg.LogDir)
	assert.Equal(t, 5, cfg.MaxCoupons)
	assert.False(t, cfg.Headless)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coinclaw.yaml")
	content := []byte(`
cookie_name: session.json
wait_timeout: 10s
headless: true
max_coupons: 0
text_username: legacy-user
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "session.json", cfg.CookieName)
	assert.Equal(t, 10*time.Second, cfg.WaitTimeout)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 0, cfg.MaxCoupons)
	assert.Equal(t, "legacy-user", cfg.TextUsername, "legacy keys parse even though they are unused")
	assert.Equal(t, 15*time.Second, cfg.LoginTimeout, "unset keys keep defaults")
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	isolateUserConfig(t)
	t.Setenv("COINCLAW_COOKIE_NAME", "env.pkl")
	t.Setenv("COINCLAW_WAIT_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env.pkl", cfg.CookieName)
	assert.Equal(t, 2*time.Second, cfg.WaitTimeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coinclaw.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cookie_name: file.pkl\n"), 0o644))
	t.Setenv("COINCLAW_COOKIE_NAME", "env.pkl")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.pkl", cfg.CookieName)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coinclaw.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wait_timeout: -1s\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wait_timeout")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coinclaw.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cookie_name: [unclosed\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
