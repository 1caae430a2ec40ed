package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads; empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"RFQ_CONFIG", "PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
		"TRUST_USER_HEADER", "DB_DRIVER", "DATABASE_DSN", "DB_HOST", "DB_PORT", "DB_USER",
		"DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "DB_DEBUG", "DEV", "MIGRATIONS", "DB_SEED",
		"LOG_LEVEL", "METRICS_EXPORTER", "METRICS_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.DriverName())
	assert.Equal(t, "host=localhost port=5432 user=rfq password= dbname=rfq sslmode=disable", cfg.Database.ConnString())
	assert.Equal(t, "none", cfg.Telemetry.Exporter)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfq.yaml")
	yml := []byte(`
server:
  port: "9000"
database:
  driver: sqlite
  dsn: /var/lib/rfq/rfq.db
app:
  seed: true
telemetry:
  exporter: scraper
`)
	require.NoError(t, os.WriteFile(path, yml, 0o600))
	clearEnv(t)
	t.Setenv("RFQ_CONFIG", path)
	t.Setenv("PORT", "9100")
	t.Setenv("DB_DEBUG", "yes")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port, "env wins over file")
	assert.Equal(t, DriverSQLite, cfg.Database.DriverName())
	assert.Equal(t, "/var/lib/rfq/rfq.db", cfg.Database.ConnString())
	assert.True(t, cfg.Database.Debug)
	assert.True(t, cfg.App.Seed)
	assert.Equal(t, "scraper", cfg.Telemetry.Exporter)
	assert.Equal(t, 15, cfg.Server.ReadTimeout, "defaults survive a partial file")
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("RFQ_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestDriverInference(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@db:5432/rfq", DriverPostgres},
		{"host=db user=u dbname=rfq", DriverPostgres},
		{"file:test?mode=memory&cache=shared", DriverSQLite},
		{"./data/rfq.db", DriverSQLite},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DatabaseConfig{DSN: tt.dsn}.DriverName(), tt.dsn)
	}
	assert.Equal(t, DriverSQLite, DatabaseConfig{Driver: "SQLite"}.DriverName())
}
