package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"90d", 90 * 24 * time.Hour},
		{"12h", 12 * time.Hour},
		{"3600", time.Hour},
		{" 30m ", 30 * time.Minute},
	}
	for _, tc := range cases {
		got, err := ParseTTL(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "abc", "xd", "0", "-5m"} {
		_, err := ParseTTL(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  host: 0.0.0.0
  port: 8080
  env: production
database:
  driver: postgres
  url: postgres://app:<db_password>@db/tours
  password: hunter2
jwt:
  secret: from-file
  expires_in: 1h
  cookie_expires_in: 7
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.CookieTTL())
	assert.Equal(t, "postgres://app:hunter2@db/tours", cfg.DSN())
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
}

func TestLoad_MissingOptionalFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, 3005, cfg.Server.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.CookieTTL())
	assert.Equal(t, 90*24*time.Hour, cfg.TokenTTL())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.EqualError(t, cfg.Validate(), "jwt secret is required")

	cfg.JWT.Secret = "x"
	assert.NoError(t, cfg.Validate())

	cfg.JWT.CookieExpiresIn = 0
	assert.Error(t, cfg.Validate())

	cfg.JWT.CookieExpiresIn = 30
	cfg.Database.Driver = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestLoad_BadEnvInt(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("EMAIL_PORT", "not-a-number")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	assert.Error(t, err)
}

func TestResetTokenSweepInterval(t *testing.T) {
	cfg := Default()
	cfg.JWT.Secret = "x"

	d, err := cfg.ResetTokenSweepInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	cfg.Workers.ResetTokenSweep = "0"
	d, err = cfg.ResetTokenSweepInterval()
	require.NoError(t, err)
	assert.Zero(t, d)

	cfg.Workers.ResetTokenSweep = "soon"
	assert.Error(t, cfg.Validate())
}

func TestMetricsConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	require.NoError(t, err)
	assert.False(t, cfg.Metrics.Enabled)

	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "metrics"
	assert.Error(t, cfg.Validate())

	t.Setenv("METRICS_ENABLED", "maybe")
	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	cfg := Default()
	cfg.JWT.Secret = "x"
	assert.Empty(t, cfg.PublicBaseURL())

	cfg.Server.PublicURL = "https://api.tourbook.io/"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.tourbook.io", cfg.PublicBaseURL())

	for _, bad := range []string{"api.tourbook.io", "ftp://api.tourbook.io", "https://"} {
		cfg.Server.PublicURL = bad
		assert.Error(t, cfg.Validate(), bad)
	}

	t.Setenv("JWT_SECRET", "s")
	t.Setenv("SERVER_PUBLIC_URL", "https://env.tourbook.io")
	loaded, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, "https://env.tourbook.io", loaded.Server.PublicURL)
}
