// Package scheduler persists a dirty store in the background.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the delay between two checks of the dirty flag.
const DefaultInterval = 5 * time.Second

// Target is the store being watched.
type Target interface {
	Dirty() bool
	Len() int
}

// SaveFunc writes the target to disk.
type SaveFunc func() error

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the delay between checks. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithOnSave registers fn to run after every save attempt, with its result.
func WithOnSave(fn func(records int, err error)) Option {
	return func(s *Scheduler) {
		s.onSave = fn
	}
}

// Scheduler saves its target whenever it is dirty, checking at a fixed
// delay. The delay is measured from the end of the previous save, and at
// most one save runs at any time.
type Scheduler struct {
	target   Target
	save     SaveFunc
	interval time.Duration
	logger   *slog.Logger
	onSave   func(records int, err error)

	mu sync.Mutex // held for the duration of a save
}

// New creates a Scheduler for target that calls save.
func New(target Target, save SaveFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		target:   target,
		save:     save,
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run checks the target every interval until ctx is cancelled, then saves
// one last time if there is anything unsaved. A failed save leaves the
// target dirty, so it is retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler: started", slog.Duration("interval", s.interval))

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.target.Dirty() {
				s.logger.Info("scheduler: flushing before exit")
				if err := s.SaveNow(); err != nil {
					return err
				}
			}
			s.logger.Info("scheduler: stopped")
			return nil

		case <-timer.C:
			if s.target.Dirty() {
				s.logger.Debug("scheduler: database is dirty, saving")
				_ = s.SaveNow()
			}
			timer.Reset(s.interval)
		}
	}
}

// SaveNow saves immediately, waiting for any save already in progress to
// finish first.
func (s *Scheduler) SaveNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.save()
	n := s.target.Len()
	if err != nil {
		s.logger.Error("scheduler: save failed", slog.String("error", err.Error()))
	} else {
		s.logger.Info("scheduler: database saved",
			slog.Int("records", n),
			slog.Duration("took", time.Since(start)))
	}
	if s.onSave != nil {
		s.onSave(n, err)
	}
	return err
}
