package dedupe

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

const schema = `CREATE TABLE IF NOT EXISTS published (
	digest     TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore persists digests in a SQLite database so deduplication
// survives across runs.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path, creating parent
// directories and the schema as needed.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("open cache %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT digest, url FROM published`)
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var digest, url string
		if err := rows.Scan(&digest, &url); err != nil {
			return nil, fmt.Errorf("load cache: %w", err)
		}
		entries[digest] = url
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) Put(ctx context.Context, digest, url string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO published (digest, url) VALUES (?, ?)`,
		digest, url)
	if err != nil {
		return fmt.Errorf("record cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
