package index

import "github.com/starford/hashdb/internal/models"

// RecordIndex is what the service needs from the index. Tests substitute
// their own implementation.
type RecordIndex interface {
	AddRecord(seq int, rec models.Record) error
	Rebuild(src Source) error
	Count() (int, error)
	LookupHash(hash string) ([]Hit, error)
	TagCounts(limit int) ([]TagCount, error)
	Close() error
}

// Verify *DB satisfies RecordIndex at compile time.
var _ RecordIndex = (*DB)(nil)
