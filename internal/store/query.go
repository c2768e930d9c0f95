package store

import "github.com/starford/hashdb/internal/models"

// PageSize is the number of records in a full page.
const PageSize = 10

// Page returns page number page of the records, newest first. Page 0 holds
// the most recently added records. If tag is non-empty only records
// carrying that tag are counted, still starting from the newest one.
//
// A page shorter than PageSize is the last one. Pages past the end, and
// negative page numbers, are empty.
func (s *Store) Page(page int, tag string) []models.Record {
	out := make([]models.Record, 0, PageSize)
	if page < 0 {
		return out
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if page > len(s.records)/PageSize {
		return out
	}

	if tag == "" {
		end := len(s.records) - page*PageSize
		if end <= 0 {
			return out
		}
		start := max(end-PageSize, 0)
		for i := end - 1; i >= start; i-- {
			out = append(out, s.records[i].Clone())
		}
		return out
	}

	skip := page * PageSize
	for i := len(s.records) - 1; i >= 0 && len(out) < PageSize; i-- {
		if !s.records[i].HasTag(tag) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, s.records[i].Clone())
	}
	return out
}
