// Package storage moves a hash database between memory and its JSON file.
//
// The file holds a single JSON array of records. Load streams it into a
// new store element by element; Save streams a store back out through an
// atomic temp-file-and-rename.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/starford/hashdb/internal/checksum"
	"github.com/starford/hashdb/internal/models"
	"github.com/starford/hashdb/internal/store"
)

// ParseError reports a database file that is not a JSON array of records.
type ParseError struct {
	Path   string
	Offset int64 // byte offset the decoder had reached
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("storage: parse %s at offset %d: %v", e.Path, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads the database file at path into a new clean store whose
// location is path. Records are appended as they are decoded, so the file
// is never held in memory as a whole.
//
// Errors opening or reading the file wrap the underlying os error. Content
// that is not a JSON array of records yields a *ParseError. No store is
// returned on error.
func Load(path string) (*store.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer f.Close()

	sum := checksum.NewWriter()
	dec := json.NewDecoder(newLegacyReader(io.TeeReader(f, sum)))
	s := store.New(path)

	fail := func(err error) (*store.Store, error) {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("storage: read %s: %w", path, err)
		}
		return nil, &ParseError{Path: path, Offset: dec.InputOffset(), Err: err}
	}

	if err := expectDelim(dec, '['); err != nil {
		return fail(err)
	}
	for dec.More() {
		var rec *models.Record
		if err := dec.Decode(&rec); err != nil {
			return fail(err)
		}
		if rec == nil {
			return fail(errors.New("null record"))
		}
		s.Add(*rec)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return fail(err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return fail(err)
		}
		return fail(fmt.Errorf("unexpected %v after array", tok))
	}

	s.MarkClean(s.Generation(), sum.Sum())
	return s, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, found %v", want, tok)
	}
	return nil
}
