package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.PrimaryBackend)
	assert.Equal(t, "redis", cfg.QueueBackend)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, "Local", cfg.Timezone)
	assert.Equal(t, []string{"Ramo", "Ember"}, cfg.Companies)
	assert.Equal(t, []string{"Rajkumar", "Yubing", "Gao Shin ming", "Safety", "Rajesh", "Manoj"}, cfg.Supervisors)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.Equal(t, "reports", cfg.S3.Prefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Log.MaxSize)
	assert.False(t, cfg.Production())
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PRIMARY_BACKEND", " SQLite ")
	t.Setenv("SQLITE_PATH", "/tmp/a.db")
	t.Setenv("RATE_LIMIT_PER_MIN", "5")
	t.Setenv("COMPANIES", "Acme,Globex")
	t.Setenv("S3_BUCKET", "reports-bucket")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, "sqlite", cfg.PrimaryBackend)
	assert.Equal(t, "/tmp/a.db", cfg.SQLitePath)
	assert.Equal(t, 5, cfg.RateLimitPerMin)
	assert.Equal(t, []string{"Acme", "Globex"}, cfg.Companies)
	assert.Equal(t, "reports-bucket", cfg.S3.Bucket)
	assert.True(t, cfg.S3.UsePathStyle)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port: "9000"
primary_backend: mongo
mongo_database: checkins
supervisors:
  - Safety
s3:
  bucket: from-file
log:
  max_backups: 2
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.HTTPPort)
	assert.Equal(t, "mongo", cfg.PrimaryBackend)
	assert.Equal(t, "checkins", cfg.MongoDatabase)
	assert.Equal(t, []string{"Safety"}, cfg.Supervisors)
	assert.Equal(t, []string{"Ramo", "Ember"}, cfg.Companies)
	assert.Equal(t, "from-file", cfg.S3.Bucket)
	assert.Equal(t, 2, cfg.Log.MaxBackups)
	assert.Equal(t, 100, cfg.Log.MaxSize)
}

func TestLoadErrors(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("PRIMARY_BACKEND", "firestore")
		_, err := Load()
		assert.ErrorContains(t, err, "firestore")
	})
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad number", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_PER_MIN", "lots")
		_, err := Load()
		assert.Error(t, err)
	})
}
