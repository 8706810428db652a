// Package duckdb stores benchmark results in DuckDB so runs over many
// reconstructions can be queried and compared later.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding benchmark results.
type Store struct {
	db   *sql.DB
	path string
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

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Path returns the database path, "" for in-memory.
func (s *Store) Path() string {
	return s.path
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
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS benchmark_summary (
		run VARCHAR,
		file VARCHAR,
		file_size BIGINT,
		file_mtime TIMESTAMP,
		precision_ratio DOUBLE,
		recall_ratio DOUBLE,
		f1_score DOUBLE,
		tp BIGINT,
		fp BIGINT,
		fn BIGINT,
		tn BIGINT,
		PRIMARY KEY (run, file)
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS benchmark_modes (
		run VARCHAR,
		file VARCHAR,
		mode INTEGER,
		matched BIGINT,
		PRIMARY KEY (run, file, mode)
	)`)
	return err
}
