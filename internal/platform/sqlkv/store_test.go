package sqlkv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/medinodus/internal/store"
	"github.com/phrazzld/medinodus/internal/store/storetest"
)

func TestSQLiteContract(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) store.KVStore {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, store.KeyReports, `[{"id":"r1"}]`))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, store.KeyReports)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"r1"}]`, got)
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Dialect("oracle"), "dsn")
	assert.ErrorIs(t, err, store.ErrUnknownDriver)
}

// TestPostgresContract runs only when a database is provided.
func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv("MEDINODUS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MEDINODUS_TEST_POSTGRES_DSN not set, skipping Postgres contract test")
	}

	storetest.RunContract(t, func(t *testing.T) store.KVStore {
		ctx := context.Background()
		s, err := OpenPostgres(ctx, dsn)
		require.NoError(t, err)
		_, err = s.db.ExecContext(ctx, `DELETE FROM medinodus_kv`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
