package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BILLED_JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "data/bills.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  mode: debug
database:
  path: /tmp/review.db
auth:
  jwt_secret: from-file-secret-value
  token_ttl: 2h
logger:
  level: debug
  format: console
`)
	t.Setenv("BILLED_SERVER_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "/tmp/review.db", cfg.Database.Path)
	assert.Equal(t, "from-file-secret-value", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("BILLED_JWT_SECRET", testSecret)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BILLED_DOTENV_PROBE=from-dotenv\n"), 0o644))
	t.Setenv("BILLED_DOTENV_PROBE", "")
	os.Unsetenv("BILLED_DOTENV_PROBE")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("BILLED_DOTENV_PROBE"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:  ServerConfig{Port: 8080, Mode: "release"},
			Auth:    AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour},
			Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
			Logger:  LoggerConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, true},
		{"bad level", func(c *Config) { c.Logger.Level = "verbose" }, true},
		{"bad format", func(c *Config) { c.Logger.Format = "xml" }, true},
		{"bad metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, true},
		{"metrics off ignores path", func(c *Config) { c.Metrics = MetricsConfig{} }, false},
		{"no database is allowed", func(c *Config) { c.Database.Path = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
