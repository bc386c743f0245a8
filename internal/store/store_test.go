package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "attendance.db")

	db, err := NewSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)

	var mode string
	require.NoError(t, db.Client.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNilHandlesAreSafe(t *testing.T) {
	var db *DB
	assert.NoError(t, db.Close())

	var r *Redis
	assert.False(t, r.Healthy(context.Background()))
	_, err := r.Pending(context.Background(), "attendance:checkins")
	assert.Error(t, err)
	assert.NoError(t, r.Close())

	var m *Mongo
	assert.NoError(t, m.Close(context.Background()))
}

func TestNewRedisAcceptsAddressOrURL(t *testing.T) {
	plain, err := NewRedis("localhost:6379")
	require.NoError(t, err)
	defer plain.Close()
	assert.Equal(t, "localhost:6379", plain.Client.Options().Addr)
	assert.Equal(t, 0, plain.Client.Options().DB)

	fromURL, err := NewRedis("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	defer fromURL.Close()
	opts := fromURL.Client.Options()
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, time.Second, opts.WriteTimeout)

	_, err = NewRedis("redis://cache.internal:6380/not-a-db")
	assert.Error(t, err)
}
