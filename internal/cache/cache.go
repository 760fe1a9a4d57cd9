// Package cache stores extracted import references keyed by file content hash
// so unchanged files are not re-parsed across runs.
//
// The cache is opt-in. A hit returns exactly what the extractor produced for
// the same bytes, so enabling it never changes a scan's result.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"layercheck/internal/extract"
)

const schema = `
CREATE TABLE IF NOT EXISTS refs (
	path     TEXT NOT NULL,
	language TEXT NOT NULL,
	sha256   TEXT NOT NULL,
	refs     TEXT NOT NULL,
	PRIMARY KEY (path, language)
)`

// Cache is a SQLite-backed reference cache. Safe for concurrent use.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	// SQLite allows one writer; serialise through a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Hash returns the content key for src.
func Hash(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached references for rel when its stored hash matches.
func (c *Cache) Lookup(ctx context.Context, rel, language, hash string) ([]extract.Reference, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT refs FROM refs WHERE path = ? AND language = ? AND sha256 = ?`,
		rel, language, hash).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: lookup %s: %w", rel, err)
	}
	var refs []extract.Reference
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", rel, err)
	}
	return refs, true, nil
}

// Store records refs for rel at hash, replacing any older entry.
func (c *Cache) Store(ctx context.Context, rel, language, hash string, refs []extract.Reference) error {
	if refs == nil {
		refs = []extract.Reference{}
	}
	data, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", rel, err)
	}
	_, err = c.db.ExecContext(ctx, `
INSERT INTO refs (path, language, sha256, refs) VALUES (?, ?, ?, ?)
ON CONFLICT (path, language) DO UPDATE SET sha256 = excluded.sha256, refs = excluded.refs`,
		rel, language, hash, string(data))
	if err != nil {
		return fmt.Errorf("cache: store %s: %w", rel, err)
	}
	return nil
}

// Len returns the number of cached files.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM refs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return n, nil
}
