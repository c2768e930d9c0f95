package api

import (
	"github.com/starford/hashdb/internal/index"
	"github.com/starford/hashdb/internal/recordservice"
)

// AddHashRequest is the request body for adding a record.
type AddHashRequest = recordservice.AddInput

// AddHashResponse is returned after a record has been added.
type AddHashResponse = recordservice.Added

// PageResponse is one page of records.
type PageResponse = recordservice.PageResult

// StatusResponse describes the database state.
type StatusResponse = recordservice.Status

// LookupResponse lists the records sharing a hash.
type LookupResponse struct {
	Hash    string      `json:"hash" validate:"required"`
	Records []index.Hit `json:"records" validate:"required"`
}

// TagsResponse lists tags by use.
type TagsResponse struct {
	Tags []index.TagCount `json:"tags" validate:"required"`
}
