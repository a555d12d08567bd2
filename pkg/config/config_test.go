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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Global.LogLevel)
	assert.Equal(t, DefaultBackendURL, cfg.Backend.URL)
	assert.Equal(t, DefaultCallbackListen, cfg.Auth.GitHub.CallbackListen)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t,
		filepath.Join(cfg.Global.DataDir, "state.db"),
		cfg.Database.SQLite.Path,
	)

	timeout, err := cfg.BackendTimeout()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, timeout)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
global:
  log_level: debug
  data_dir: /tmp/devpath-test
backend:
  url: https://api.devpath.example
  timeout: 30s
  rate_limit:
    requests_per_minute: 12
auth:
  github:
    client_id: Iv1.deadbeef
database:
  driver: sqlite
  sqlite:
    path: /tmp/devpath-test/custom.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Global.LogLevel)
	assert.Equal(t, "https://api.devpath.example", cfg.Backend.URL)
	assert.Equal(t, 12, cfg.Backend.RateLimit.RequestsPerMinute)
	assert.Equal(t, "Iv1.deadbeef", cfg.Auth.GitHub.ClientID)
	assert.Equal(t, "/tmp/devpath-test/custom.db", cfg.Database.SQLite.Path)

	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	path := writeConfig(t, `
backend:
  url: http://from-file:8000
`)

	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "no env vars uses yaml values",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://from-file:8000", cfg.Backend.URL)
			},
		},
		{
			name: "string override - backend url",
			envVars: map[string]string{
				"DEVPATH_BACKEND_URL": "http://from-env:9000",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://from-env:9000", cfg.Backend.URL)
			},
		},
		{
			name: "string override - log level",
			envVars: map[string]string{
				"DEVPATH_GLOBAL_LOG_LEVEL": "trace",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "trace", cfg.Global.LogLevel)
			},
		},
		{
			name: "nested int override - rate limit",
			envVars: map[string]string{
				"DEVPATH_BACKEND_RATE_LIMIT_REQUESTS_PER_MINUTE": "30",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 30, cfg.Backend.RateLimit.RequestsPerMinute)
			},
		},
		{
			name: "string override - database driver",
			envVars: map[string]string{
				"DEVPATH_DATABASE_DRIVER":            "postgres",
				"DEVPATH_DATABASE_POSTGRES_HOST":     "db.internal",
				"DEVPATH_DATABASE_POSTGRES_DATABASE": "devpath",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres", cfg.Database.Driver)
				assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
				assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
				require.NoError(t, cfg.Validate())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load(path)
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_MergeOrder(t *testing.T) {
	base := writeConfig(t, `
global:
  log_level: warn
backend:
  url: http://base:8000
`)
	override := writeConfig(t, `
backend:
  url: http://override:8000
`)

	cfg, err := Load(base, override)
	require.NoError(t, err)

	// Later files win; untouched keys survive from earlier files.
	assert.Equal(t, "http://override:8000", cfg.Backend.URL)
	assert.Equal(t, "warn", cfg.Global.LogLevel)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name: "bad backend url scheme",
			mutate: func(cfg *Config) {
				cfg.Backend.URL = "ftp://example.com"
			},
			wantErr: "must start with http",
		},
		{
			name: "bad timeout",
			mutate: func(cfg *Config) {
				cfg.Backend.Timeout = "soon"
			},
			wantErr: "parsing backend timeout",
		},
		{
			name: "negative rate limit",
			mutate: func(cfg *Config) {
				cfg.Backend.RateLimit.RequestsPerMinute = -1
			},
			wantErr: "must not be negative",
		},
		{
			name: "unknown driver",
			mutate: func(cfg *Config) {
				cfg.Database.Driver = "oracle"
			},
			wantErr: "unsupported database driver",
		},
		{
			name: "postgres without host",
			mutate: func(cfg *Config) {
				cfg.Database.Driver = "postgres"
			},
			wantErr: "postgres host is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
