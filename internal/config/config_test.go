package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	t.Setenv("PORT", "9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://example.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "portal.yaml")
	body := `environment: production
server:
  port: 8443
supabase:
  url: https://prod.supabase.co
  api_key: service-key
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 8443, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://override.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "override-key")
	t.Setenv("PORTAL_ENV", "staging")

	dir := t.TempDir()
	path := filepath.Join(dir, "portal.yaml")
	body := `environment: production
supabase:
  url: https://file.supabase.co
  api_key: file-key
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "https://override.supabase.co", cfg.Supabase.URL)
}

func TestValidateRejectsMissingBackend(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Supabase.URL = "https://example.supabase.co"
	cfg.Supabase.APIKey = "anon-key"
	cfg.Server.Port = -1

	assert.Error(t, cfg.Validate())
}
