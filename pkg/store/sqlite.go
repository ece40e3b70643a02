// Package store persists the schematic collections in SQLite: meters,
// per-diagram placements, connections, polyline segments, diagrams, and an
// append-only edit log.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

// NewStore initializes the SQLite database connection.
// It enables WAL mode for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	// node_positions deliberately carries no UNIQUE(node_id, diagram_id)
	// constraint: the hosted backend this schema mirrors has none, so the
	// one-position-per-pair rule is enforced by check-then-write in callers.
	query := `
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		shop_name TEXT,
		shop_number TEXT,
		color TEXT,
		file_ref TEXT
	);

	CREATE TABLE IF NOT EXISTS node_positions (
		node_id TEXT NOT NULL,
		diagram_id TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		scale_x REAL NOT NULL DEFAULT 1.0,
		scale_y REAL NOT NULL DEFAULT 1.0
	);
	CREATE INDEX IF NOT EXISTS idx_positions_diagram ON node_positions(diagram_id);

	CREATE TABLE IF NOT EXISTS edges (
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		PRIMARY KEY (parent_id, child_id)
	);

	CREATE TABLE IF NOT EXISTS line_segments (
		id TEXT PRIMARY KEY,
		diagram_id TEXT NOT NULL,
		from_x REAL NOT NULL,
		from_y REAL NOT NULL,
		to_x REAL NOT NULL,
		to_y REAL NOT NULL,
		kind TEXT NOT NULL,
		color TEXT,
		stroke_width REAL NOT NULL DEFAULT 2.0,
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		seg_index INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_segments_diagram ON line_segments(diagram_id);
	CREATE INDEX IF NOT EXISTS idx_segments_edge ON line_segments(parent_id, child_id);

	CREATE TABLE IF NOT EXISTS diagrams (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		name TEXT NOT NULL,
		published INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS edit_log (
		ts DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		action TEXT NOT NULL,
		diagram_id TEXT,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_edit_log_ts ON edit_log(ts);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
