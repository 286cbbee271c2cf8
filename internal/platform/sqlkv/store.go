// Package sqlkv persists a store.KVStore in a single SQL table through
// database/sql. It supports the pure-Go SQLite driver for on-device storage
// and pgx for hosting the container next to a Postgres instance.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/phrazzld/medinodus/internal/store"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

// Supported dialects
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type queries struct {
	driver string
	create string
	get    string
	upsert string
	remove string
}

var dialects = map[Dialect]queries{
	DialectSQLite: {
		driver: "sqlite",
		create: `CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		get:    `SELECT value FROM kv WHERE key = ?`,
		upsert: `INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		remove: `DELETE FROM kv WHERE key = ?`,
	},
	DialectPostgres: {
		driver: "pgx",
		create: `CREATE TABLE IF NOT EXISTS medinodus_kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		get:    `SELECT value FROM medinodus_kv WHERE key = $1`,
		upsert: `INSERT INTO medinodus_kv (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		remove: `DELETE FROM medinodus_kv WHERE key = $1`,
	},
}

// Store is a KVStore over a database/sql handle.
type Store struct {
	db      *sql.DB
	dialect Dialect
	q       queries

	mu     sync.RWMutex
	closed bool
}

var _ store.Backend = (*Store)(nil)

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlkv: empty sqlite path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return Open(ctx, DialectSQLite, path)
}

// OpenPostgres connects to the Postgres instance described by dsn.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlkv: empty postgres dsn")
	}
	return Open(ctx, DialectPostgres, dsn)
}

// Open connects using the given dialect and ensures the table exists.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	q, ok := dialects[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownDriver, dialect)
	}

	db, err := sql.Open(q.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// a single connection serializes writers and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if _, err := db.ExecContext(ctx, q.create); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &Store{db: db, dialect: dialect, q: q}, nil
}

// Get implements store.KVStore.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	var value string
	err := s.db.QueryRowContext(ctx, s.q.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", store.NewStoreError(string(s.dialect), "get", key, err)
	}
	return value, nil
}

// Set implements store.KVStore.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return store.ErrEmptyKey
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.q.upsert, key, value); err != nil {
		return store.NewStoreError(string(s.dialect), "set", key, err)
	}
	return nil
}

// Remove implements store.KVStore.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.RemoveMany(ctx, []string{key})
}

// RemoveMany implements store.KVStore. The deletions share one transaction.
func (s *Store) RemoveMany(ctx context.Context, keys []string) (retErr error) {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.NewStoreError(string(s.dialect), "remove", "", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, s.q.remove, k); err != nil {
			return store.NewStoreError(string(s.dialect), "remove", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return store.NewStoreError(string(s.dialect), "remove", strings.Join(keys, ","), err)
	}
	return nil
}

// Close implements store.Backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}
