package index

import (
	"fmt"

	"github.com/starford/hashdb/internal/models"
)

// Source is anything that can enumerate records in store order.
type Source interface {
	All(fn func(i int, rec models.Record) bool)
}

// Rebuild replaces the whole index with the records of src in a single
// transaction.
func (db *DB) Rebuild(src Source) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM record_tags`); err != nil {
		return fmt.Errorf("index: clear tags: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM records`); err != nil {
		return fmt.Errorf("index: clear records: %w", err)
	}

	var insertErr error
	src.All(func(i int, rec models.Record) bool {
		insertErr = insertRecord(tx, i, rec)
		return insertErr == nil
	})
	if insertErr != nil {
		return insertErr
	}
	return tx.Commit()
}
