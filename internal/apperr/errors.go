// Package apperr holds the sentinel errors shared by the service and its surfaces.
package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalid     = errors.New("invalid input")
	ErrRateLimited = errors.New("rate limited")
)
