package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_PutAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	written := time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC)
	st.now = func() time.Time { return written }

	require.NoError(t, st.Put(ctx, "https://acme.com", []byte(`{"description":"x"}`)))

	e, err := st.Get(ctx, "https://acme.com")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "https://acme.com", e.Key)
	assert.JSONEq(t, `{"description":"x"}`, string(e.Value))
	assert.Equal(t, written, e.CreatedAt)
}

func TestSQLite_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	e, err := st.Get(context.Background(), "https://nobody.example")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestSQLite_PutReplaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "k", []byte(`1`)))
	require.NoError(t, st.Put(ctx, "k", []byte(`2`)))

	e, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "2", string(e.Value))
}

func TestSQLite_Delete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, "k", []byte(`1`)))

	removed, err := st.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = st.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, removed)

	e, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_WALMode(t *testing.T) {
	st := newTestSQLiteStore(t)

	var mode string
	require.NoError(t, st.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}
