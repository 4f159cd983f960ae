package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cache_entries (
    version TEXT NOT NULL,
    domain TEXT NOT NULL,
    key TEXT NOT NULL,
    value BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (version, domain, key)
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_created_at
    ON cache_entries(created_at);
`

// SQLiteStore is the durable cache tier backed by a single SQLite database.
// Entries are scoped to a version tag so multiple extraction-logic versions
// can coexist in one file.
type SQLiteStore struct {
	db      *sql.DB
	version string
}

// NewSQLiteStore opens (or creates) the cache database at path and initialises
// the schema. Parent directories are created as needed.
func NewSQLiteStore(path string, version string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise cache schema: %w", err)
	}

	return &SQLiteStore{
		db:      db,
		version: version,
	}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the cached value for a key, or a miss. An unreadable row is
// evicted and reported as a miss.
func (s *SQLiteStore) Get(ctx context.Context, domain Domain, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cache_entries WHERE version = ? AND domain = ? AND key = ?`,
		s.version, string(domain), key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		// A row we cannot read is as good as absent. Drop it so the slot can
		// be repopulated by recomputation.
		_ = s.Delete(ctx, domain, key)
		return nil, false, nil
	}
	if len(value) == 0 {
		_ = s.Delete(ctx, domain, key)
		return nil, false, nil
	}
	return value, true, nil
}

// Put inserts or replaces a cache entry under the active version.
func (s *SQLiteStore) Put(ctx context.Context, domain Domain, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (version, domain, key, value, created_at)
         VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		s.version, string(domain), key, value,
	)
	return err
}

// Delete removes a cache entry under the active version.
func (s *SQLiteStore) Delete(ctx context.Context, domain Domain, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE version = ? AND domain = ? AND key = ?`,
		s.version, string(domain), key,
	)
	return err
}

// PurgeOlderThan deletes entries across all versions older than the given age.
// Returns the number of removed entries.
func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UTC().Format("2006-01-02 15:04:05")
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE created_at < ?`, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearVersion wipes every entry belonging to the active version.
// Returns the number of removed entries.
func (s *SQLiteStore) ClearVersion(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE version = ?`, s.version,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListVersions returns all version tags present in the database, sorted.
func (s *SQLiteStore) ListVersions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT version FROM cache_entries ORDER BY version`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
