package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS icon_cache (
	cache_key  TEXT PRIMARY KEY,
	markup     TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore persists the session cache in a SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the cache database at path and creates its schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get returns the markup stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("%w: storage is not configured", ErrUnavailable)
	}
	var markup string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT markup FROM icon_cache WHERE cache_key = ?`, key,
	).Scan(&markup)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return markup, nil
}

// Set stores markup under key, replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("%w: storage is not configured", ErrUnavailable)
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO icon_cache (cache_key, markup, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET markup = excluded.markup, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Purge drops the entries older than maxAge and returns how many were removed.
func (s *SQLiteStore) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("%w: storage is not configured", ErrUnavailable)
	}
	cutoff := time.Now().Add(-maxAge).UTC().UnixMilli()
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM icon_cache WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}
