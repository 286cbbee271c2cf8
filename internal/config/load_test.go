package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets environment variables for one test and isolates HOME so a
// developer's own config file cannot leak in.
func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

// TestLoadDefaults verifies that Load sets the expected default values
// when no environment variables are set.
func TestLoadDefaults(t *testing.T) {
	setupEnv(t, map[string]string{
		"MEDINODUS_CLIENT_DATA_DIR": "/tmp/medinodus-test",
	})

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Client.LogLevel)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, filepath.Join("/tmp/medinodus-test", "state.json"), cfg.Store.Path)
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 15, cfg.API.TimeoutSeconds)
	assert.Equal(t, 64, cfg.Sync.QueueSize)
	assert.True(t, cfg.Session.InvalidateExpired)
}

// TestLoadFromEnv verifies that Load reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	setupEnv(t, map[string]string{
		"MEDINODUS_CLIENT_LOG_LEVEL":          "debug",
		"MEDINODUS_STORE_DRIVER":              "redis",
		"MEDINODUS_STORE_REDIS_ADDR":          "localhost:6379",
		"MEDINODUS_STORE_REDIS_DB":            "3",
		"MEDINODUS_API_BASE_URL":              "https://api.example.com/api/v1",
		"MEDINODUS_API_TIMEOUT_SECONDS":       "5",
		"MEDINODUS_SYNC_QUEUE_SIZE":           "8",
		"MEDINODUS_SESSION_INVALIDATE_EXPIRED": "false",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Client.LogLevel)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 3, cfg.Store.RedisDB)
	assert.Equal(t, "", cfg.Store.Path, "redis has no default path")
	assert.Equal(t, "https://api.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.TimeoutSeconds)
	assert.Equal(t, 8, cfg.Sync.QueueSize)
	assert.False(t, cfg.Session.InvalidateExpired)
}

// TestEnvironmentVariablePrecedence verifies that environment variables take
// precedence over config file values.
func TestEnvironmentVariablePrecedence(t *testing.T) {
	configYaml := `
client:
  log_level: warn
  data_dir: /var/lib/medinodus
store:
  driver: sqlite
api:
  base_url: https://file.example.com
  timeout_seconds: 30
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYaml), 0o600))

	setupEnv(t, map[string]string{
		"MEDINODUS_API_TIMEOUT_SECONDS": "9",
	})

	cfg, err := LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, 9, cfg.API.TimeoutSeconds, "env must win over file")
	assert.Equal(t, "warn", cfg.Client.LogLevel, "file value used when env unset")
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, filepath.Join("/var/lib/medinodus", "state.db"), cfg.Store.Path)
	assert.Equal(t, "https://file.example.com", cfg.API.BaseURL)
}

// TestLoadValidationErrors verifies that invalid values are rejected.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "invalid log level",
			envVars: map[string]string{"MEDINODUS_CLIENT_LOG_LEVEL": "verbose"},
		},
		{
			name:    "unknown driver",
			envVars: map[string]string{"MEDINODUS_STORE_DRIVER": "dynamo"},
		},
		{
			name:    "redis without address",
			envVars: map[string]string{"MEDINODUS_STORE_DRIVER": "redis"},
		},
		{
			name:    "postgres without dsn",
			envVars: map[string]string{"MEDINODUS_STORE_DRIVER": "postgres"},
		},
		{
			name:    "short encryption key",
			envVars: map[string]string{"MEDINODUS_STORE_ENCRYPTION_KEY": "abcd"},
		},
		{
			name:    "invalid base url",
			envVars: map[string]string{"MEDINODUS_API_BASE_URL": "not a url"},
		},
		{
			name:    "timeout too large",
			envVars: map[string]string{"MEDINODUS_API_TIMEOUT_SECONDS": "500"},
		},
		{
			name:    "zero queue",
			envVars: map[string]string{"MEDINODUS_SYNC_QUEUE_SIZE": "0"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setupEnv(t, tc.envVars)

			cfg, err := Load()

			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	setupEnv(t, nil)

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = LoadFile("")
	assert.Error(t, err)
}
