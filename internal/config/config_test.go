// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", DriverMemory)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Ledger.ResetMaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Ledger.RetryInitialInterval)
	assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
	assert.Equal(t, 168*time.Hour, cfg.Jobs.ResetInterval)
	assert.False(t, cfg.JWT.Enabled)
	assert.Contains(t, cfg.CORS.AllowedHeaders, "Idempotency-Key")
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  url: postgres://file/ledger
server:
  port: 8080
ledger:
  reset_max_attempts: 9
`), 0o600))

	t.Setenv("DATABASE_URL", "postgres://env/ledger")
	t.Setenv("RESET_MAX_ATTEMPTS", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/ledger", cfg.Database.URL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Ledger.ResetMaxAttempts)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
}

func TestLoad_FrontendURLList(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", DriverMemory)
	t.Setenv("FRONTEND_URL", "https://a.example, https://b.example,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"https://a.example", "https://b.example"},
		cfg.CORS.AllowedOrigins,
	)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	base := func() *Config {
		c, err := Load("")
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{
			"postgres without url",
			func(c *Config) { c.Database.URL = "" },
			"database.url is required",
		},
		{
			"unknown driver",
			func(c *Config) { c.Database.Driver = "mongo" },
			"database.driver must be one of",
		},
		{
			"jobs on memory",
			func(c *Config) {
				c.Database.Driver = DriverMemory
				c.Jobs.Enabled = true
			},
			"postgres driver",
		},
		{
			"production without jwt",
			func(c *Config) { c.App.Environment = "production" },
			"jwt must be enabled",
		},
		{
			"zero attempts",
			func(c *Config) { c.Ledger.ResetMaxAttempts = 0 },
			"reset_max_attempts",
		},
		{
			"sweep too frequent",
			func(c *Config) {
				c.Jobs.Enabled = true
				c.Jobs.ResetInterval = time.Second
			},
			"reset_interval",
		},
		{
			"jwt without key",
			func(c *Config) {
				c.JWT.Enabled = true
				c.JWT.PublicKeyPath = ""
			},
			"jwt.public_key_path",
		},
		{
			"sample rate out of range",
			func(c *Config) { c.Otel.SampleRate = 2 },
			"otel.sample_rate must be at most 1",
		},
		{
			"bad log format",
			func(c *Config) { c.Log.Format = "xml" },
			"log.format",
		},
		{
			"wildcard with credentials",
			func(c *Config) {
				c.CORS.AllowCredentials = true
				c.CORS.AllowedOrigins = []string{"*"}
			},
			"wildcard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := validate(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
