package storage

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/hashdb/internal/checksum"
)

// watchSettle is how long the file must stay quiet before it is checked.
const watchSettle = 200 * time.Millisecond

// Checksummer exposes the checksum of the file a store last wrote or read.
type Checksummer interface {
	Location() string
	SavedChecksum() string
}

// ExternalChangeFunc is called with the checksum of a database file that
// no longer matches what this process last saved or loaded.
type ExternalChangeFunc func(sum string)

// Watch observes the database file of s until ctx is cancelled and calls
// cb when its content changes behind this process's back. Nothing is
// reloaded: the next save overwrites the outside change.
//
// The parent directory is watched rather than the file, because every
// save replaces the file by renaming a new one over it.
func Watch(ctx context.Context, s Checksummer, logger *slog.Logger, cb ExternalChangeFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	path, err := filepath.Abs(s.Location())
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", path))

	var settle *time.Timer
	var settleCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			settleCh = nil
			sum, err := checksum.File(path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					logger.Warn("watcher: database file removed", slog.String("path", path))
				} else {
					logger.Warn("watcher: checksum failed", slog.String("path", path), slog.String("error", err.Error()))
				}
				continue
			}
			if sum == s.SavedChecksum() {
				continue
			}
			logger.Warn("watcher: database file changed outside this process; the next save overwrites it",
				slog.String("path", path),
				slog.String("checksum", sum))
			if cb != nil {
				cb(sum)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(watchSettle)
			} else {
				settle.Reset(watchSettle)
			}
			settleCh = settle.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
