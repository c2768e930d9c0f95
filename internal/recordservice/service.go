// Package recordservice is the single entry point the outer surfaces use
// to read pages of the hash database and add records to it.
package recordservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/hashdb/internal/apperr"
	"github.com/starford/hashdb/internal/index"
	"github.com/starford/hashdb/internal/models"
	"github.com/starford/hashdb/internal/parser"
	"github.com/starford/hashdb/internal/store"
)

// AddInput is a record as submitted by a user.
type AddInput struct {
	Hash string `json:"hash"`
	Name string `json:"name"`
	Tags string `json:"tags"` // comma separated
}

// Validate checks the submitted values.
func (in *AddInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Hash, validation.Required, validation.Match(parser.HashPattern).Error("is not a valid hash")),
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, parser.MaxNameLen)),
		validation.Field(&in.Tags, validation.By(func(v any) error {
			_, err := parser.Tags(v.(string))
			return err
		})),
	)
}

// PageResult is one page of records plus navigation hints.
type PageResult struct {
	Page     int             `json:"page"`
	Tag      string          `json:"tag,omitempty"`
	Records  []models.Record `json:"records"`
	PrevPage *int            `json:"prev_page,omitempty"`
	NextPage *int            `json:"next_page,omitempty"`
}

// Added is the result of a successful add.
type Added struct {
	Seq    int           `json:"seq"`
	Record models.Record `json:"record"`
}

// Status summarises the state of the database.
type Status struct {
	Records       int    `json:"records"`
	Dirty         bool   `json:"dirty"`
	SavedChecksum string `json:"saved_checksum"`
}

// Notifier is told about every record that is added.
type Notifier interface {
	RecordAdded(seq int, rec models.Record)
}

// Service coordinates the store, its index and change notifications.
type Service struct {
	store  *store.Store
	idx    index.RecordIndex
	notify Notifier
	logger *slog.Logger
}

// NewService creates a new record service. notify may be nil.
func NewService(st *store.Store, idx index.RecordIndex, notify Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, idx: idx, notify: notify, logger: logger}
}

// Page returns page number page, newest records first, optionally limited
// to records tagged tag. The tag is cleaned the same way submitted tags
// are; a tag that cleans to nothing means no filter.
func (s *Service) Page(_ context.Context, page int, tag string) (*PageResult, error) {
	if page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", apperr.ErrInvalid)
	}
	tag = parser.Tag(tag)
	res := &PageResult{
		Page:    page,
		Tag:     tag,
		Records: s.store.Page(page, tag),
	}
	if page > 0 {
		prev := page - 1
		res.PrevPage = &prev
	}
	if len(res.Records) == store.PageSize {
		next := page + 1
		res.NextPage = &next
	}
	return res, nil
}

// AddHash validates in and appends it to the store as a primary record.
// The index is updated best-effort: the store is the source of truth and
// the index is rebuilt from it on the next start.
func (s *Service) AddHash(_ context.Context, in AddInput) (*Added, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalid, err.Error())
	}
	tags, _ := parser.Tags(in.Tags)
	rec := models.Record{
		Hash: in.Hash,
		Kind: models.KindPrimary,
		Name: in.Name,
		Tags: tags,
	}

	seq := s.store.Add(rec)
	s.logger.Info("record added", slog.Int("seq", seq), slog.String("hash", rec.Hash))

	if s.idx != nil {
		if err := s.idx.AddRecord(seq, rec); err != nil {
			s.logger.Warn("index add failed", slog.Int("seq", seq), slog.String("error", err.Error()))
		}
	}
	if s.notify != nil {
		s.notify.RecordAdded(seq, rec)
	}
	return &Added{Seq: seq, Record: rec}, nil
}

// LookupHash returns every record with the given hash.
func (s *Service) LookupHash(_ context.Context, hash string) ([]index.Hit, error) {
	if s.idx == nil {
		return nil, errors.New("recordservice: no index")
	}
	hits, err := s.idx.LookupHash(hash)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, apperr.ErrNotFound
	}
	return hits, nil
}

// Tags returns the most used tags.
func (s *Service) Tags(_ context.Context, limit int) ([]index.TagCount, error) {
	if s.idx == nil {
		return nil, errors.New("recordservice: no index")
	}
	tags, err := s.idx.TagCounts(limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(tags), nil
}

// Status reports the record count and save state.
func (s *Service) Status(_ context.Context) Status {
	return Status{
		Records:       s.store.Len(),
		Dirty:         s.store.Dirty(),
		SavedChecksum: s.store.SavedChecksum(),
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
