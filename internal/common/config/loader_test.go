package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: test-console\n"))
	require.NoError(t, err)

	assert.Equal(t, "test-console", cfg.App.Name)
	assert.Equal(t, "http://localhost:8000/api", cfg.Scoring.BaseURL)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.True(t, strings.HasSuffix(cfg.Database.SQLite.Path, "applications.db"))
	assert.Equal(t, "cs_applications", cfg.Storage.Key)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("RISK_CONSOLE_SCORING_BASE_URL", "https://scoring.internal/api/")
	t.Setenv("RISK_CONSOLE_STORAGE_BACKEND", "redis")
	t.Setenv("TEST_REDIS_PASSWORD", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, `
database:
  redis:
    address: localhost:6379
    password: ${TEST_REDIS_PASSWORD}
`))
	require.NoError(t, err)

	assert.Equal(t, "https://scoring.internal/api", cfg.Scoring.BaseURL)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "s3cret", cfg.Database.Redis.Password)
}

func TestLoadFromFile_SQLitePathOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk.db")
	t.Setenv("RISK_CONSOLE_DATABASE_SQLITE_PATH", path)

	cfg, err := LoadFromFile(writeConfig(t, "database:\n  sqlite:\n    path: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Database.SQLite.Path)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "non-http scoring url",
			body:    "scoring:\n  base_url: ftp://example.com\n",
			wantErr: "scoring.base_url",
		},
		{
			name:    "unknown backend",
			body:    "storage:\n  backend: cassandra\n",
			wantErr: "storage.backend",
		},
		{
			name:    "postgres without user",
			body:    "storage:\n  backend: postgres\ndatabase:\n  postgres:\n    host: db\n    database: risk\n",
			wantErr: "database.postgres.user",
		},
		{
			name:    "sns without topic",
			body:    "notifications:\n  sns:\n    enabled: true\n",
			wantErr: "topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
