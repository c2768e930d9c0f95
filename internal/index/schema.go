// Package index keeps a SQLite mirror of the record sequence for lookups
// the in-memory store does not serve: records by hash and tag counts.
//
// The JSON database file stays the source of truth. The index is rebuilt
// from the store at startup and appended to as records are added.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	seq  INTEGER PRIMARY KEY,
	hash TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS record_tags (
	seq INTEGER NOT NULL REFERENCES records(seq) ON DELETE CASCADE,
	tag TEXT NOT NULL,
	UNIQUE(seq, tag)
);

CREATE INDEX IF NOT EXISTS idx_records_hash ON records(hash);
CREATE INDEX IF NOT EXISTS idx_record_tags_tag ON record_tags(tag);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
