// Package store holds the in-memory record sequence of a hash database.
//
// A Store is append-only: records keep their insertion order, which is also
// their on-disk order, and are never removed or edited. The dirty flag
// tracks whether the sequence has changed since the last completed save.
package store

import (
	"sync"

	"github.com/starford/hashdb/internal/models"
)

// Store is an ordered, append-only collection of records bound to a file.
// It is safe for concurrent use.
type Store struct {
	location string

	mu      sync.RWMutex
	records []models.Record
	dirty   bool
	gen     uint64 // bumped on every append
	saved   string // checksum of the last file written or loaded
}

// New returns an empty, clean store backed by the file at location.
func New(location string) *Store {
	return &Store{location: location, records: []models.Record{}}
}

// Location returns the path of the backing file.
func (s *Store) Location() string {
	return s.location
}

// Add appends rec and marks the store dirty. It returns the index of the
// new record. No validation is performed here.
func (s *Store) Add(rec models.Record) int {
	rec = rec.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	s.dirty = true
	s.gen++
	return len(s.records) - 1
}

// At returns the record at index i, or false when i is past the end of the
// sequence as it is right now.
func (s *Store) At(i int) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.records) {
		return models.Record{}, false
	}
	return s.records[i], true
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dirty reports whether records were added since the last completed save.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Generation identifies the current contents. Pass it to MarkClean once
// everything up to this generation has been persisted.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// MarkClean clears the dirty flag if nothing was appended after gen was
// observed and records sum as the checksum of the persisted file. It
// reports whether the flag was cleared.
func (s *Store) MarkClean(gen uint64, sum string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = sum
	if s.gen != gen {
		return false
	}
	s.dirty = false
	return true
}

// SavedChecksum returns the checksum of the file last written or loaded,
// or "" if there has been neither.
func (s *Store) SavedChecksum() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saved
}

// All calls fn for each record in order until fn returns false. The
// store is read-locked for the duration, so fn must not call Add.
func (s *Store) All(fn func(i int, rec models.Record) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, rec := range s.records {
		if !fn(i, rec) {
			return
		}
	}
}
