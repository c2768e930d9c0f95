package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/natefinch/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/starford/hashdb/internal/checksum"
	"github.com/starford/hashdb/internal/models"
	"github.com/starford/hashdb/internal/store"
)

var errSaveAborted = errors.New("storage: save aborted")

// Source is the read side of a store as seen by Save.
type Source interface {
	Location() string
	Generation() uint64
	At(i int) (models.Record, bool)
	MarkClean(gen uint64, sum string) bool
}

var _ Source = (*store.Store)(nil)

// Save writes the records of s to s.Location() as a JSON array and clears
// the dirty flag.
//
// The file is replaced atomically: readers see either the previous file
// or the new one. Records are encoded one at a time into a pipe that the
// file writer drains, so a slow disk stalls the encoder instead of growing
// a buffer.
//
// Save does not snapshot s. Each record is fetched when its turn comes,
// so records added while a save runs may or may not be written. Such
// records leave s dirty and are picked up by the next save.
func Save(s Source) error {
	path := s.Location()
	gen := s.Generation()
	sum := checksum.NewWriter()
	pr, pw := io.Pipe()

	var g errgroup.Group
	g.Go(func() error {
		err := writeRecords(pw, s)
		pw.CloseWithError(err)
		return err
	})

	writeErr := atomic.WriteFile(path, io.TeeReader(pr, sum))
	// Unblocks the encoder if the writer gave up before reading everything.
	pr.CloseWithError(errSaveAborted)

	if err := g.Wait(); err != nil && !errors.Is(err, errSaveAborted) {
		return fmt.Errorf("storage: encode %s: %w", path, err)
	}
	if writeErr != nil {
		return fmt.Errorf("storage: write %s: %w", path, writeErr)
	}

	s.MarkClean(gen, sum.Sum())
	return nil
}

// writeRecords emits strict JSON: no separator after the last record.
func writeRecords(w io.Writer, s Source) error {
	if _, err := io.WriteString(w, "[\n"); err != nil {
		return err
	}
	i := 0
	for ; ; i++ {
		rec, ok := s.At(i)
		if !ok {
			break
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if i > 0 {
			if _, err := io.WriteString(w, ",\n"); err != nil {
				return err
			}
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	tail := "\n]\n"
	if i == 0 {
		tail = "]\n"
	}
	_, err := io.WriteString(w, tail)
	return err
}
