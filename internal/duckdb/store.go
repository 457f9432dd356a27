// Package duckdb stores graph segment sequences in DuckDB so that graphs too
// large to hold in memory can still serve sequence lookups.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// DefaultCacheSize is the number of lookups kept in the in-process cache.
const DefaultCacheSize = 1 << 16

// cached is a lookup result, including misses.
type cached struct {
	seq string
	ok  bool
}

// Store manages a DuckDB connection holding segment sequences.
type Store struct {
	db     *sql.DB
	path   string
	cache  *lru.Cache[uint64, cached]
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	cache, err := lru.New[uint64, cached](DefaultCacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create segment cache: %w", err)
	}

	s := &Store{db: db, path: path, cache: cache, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// SetLogger sets the logger used for lookup failures.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// SetCacheSize changes the number of cached lookups. Values below one are
// ignored.
func (s *Store) SetCacheSize(n int) {
	if n > 0 {
		s.cache.Resize(n)
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS segments (
		node BIGINT,
		sequence VARCHAR
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS segment_source (
		path VARCHAR,
		size BIGINT,
		mod_time BIGINT
	)`)
	return err
}
