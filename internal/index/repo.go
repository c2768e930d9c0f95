package index

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/starford/hashdb/internal/models"
)

// Hit is a record found by hash, with its position in the store.
type Hit struct {
	Seq    int           `json:"seq"`
	Record models.Record `json:"record"`
}

// TagCount is the number of records carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// AddRecord stores rec at position seq, replacing whatever was there.
func (db *DB) AddRecord(seq int, rec models.Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := insertRecord(tx, seq, rec); err != nil {
		return err
	}
	return tx.Commit()
}

func insertRecord(tx *sql.Tx, seq int, rec models.Record) error {
	tagsJSON, _ := json.Marshal(rec.Tags)

	_, err := tx.Exec(`
		INSERT INTO records (seq, hash, kind, name, tags)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO UPDATE SET
			hash = excluded.hash,
			kind = excluded.kind,
			name = excluded.name,
			tags = excluded.tags
	`, seq, rec.Hash, string(rec.Kind), rec.Name, string(tagsJSON))
	if err != nil {
		return fmt.Errorf("index: upsert record %d: %w", seq, err)
	}

	_, _ = tx.Exec(`DELETE FROM record_tags WHERE seq = ?`, seq)
	for _, tag := range rec.Tags {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO record_tags (seq, tag) VALUES (?, ?)`, seq, tag); err != nil {
			return fmt.Errorf("index: insert tag: %w", err)
		}
	}
	return nil
}

// Count returns the number of indexed records.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// LookupHash returns every record with the given hash, oldest first.
func (db *DB) LookupHash(hash string) ([]Hit, error) {
	rows, err := db.conn.Query(`SELECT seq, kind, name, tags FROM records WHERE hash = ? ORDER BY seq`, hash)
	if err != nil {
		return nil, fmt.Errorf("index: lookup hash: %w", err)
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var (
			h        Hit
			kind     string
			tagsJSON string
		)
		if err := rows.Scan(&h.Seq, &kind, &h.Record.Name, &tagsJSON); err != nil {
			return nil, err
		}
		h.Record.Hash = hash
		h.Record.Kind = models.Kind(kind)
		if err := json.Unmarshal([]byte(tagsJSON), &h.Record.Tags); err != nil {
			return nil, fmt.Errorf("index: decode tags of %d: %w", h.Seq, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// TagCounts returns tags by descending use, ties broken alphabetically.
// A non-positive limit means 100.
func (db *DB) TagCounts(limit int) ([]TagCount, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.Query(`
		SELECT tag, count(*) AS n
		FROM record_tags
		GROUP BY tag
		ORDER BY n DESC, tag ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: tag counts: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
