// Package models defines the domain types for hashdb.
package models

import "slices"

// Kind says what sort of content address a record holds.
type Kind string

// Record kinds.
const (
	KindPrimary Kind = "primary" // immutable content hash
	KindAlias   Kind = "alias"   // mutable name pointing at a hash
)

// legacy on-disk spellings
const (
	legacyPrimary = "ipfs"
	legacyAlias   = "ipns"
)

// UnmarshalText implements encoding.TextUnmarshaler. Files written before
// the primary/alias names were introduced use "ipfs" and "ipns"; those are
// mapped onto the current names and anything else is kept verbatim.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case legacyPrimary:
		*k = KindPrimary
	case legacyAlias:
		*k = KindAlias
	default:
		*k = Kind(b)
	}
	return nil
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindPrimary || k == KindAlias
}

// Record is one entry of the hash database. Records are never edited after
// they have been added.
type Record struct {
	Hash string   `json:"hash"`
	Kind Kind     `json:"type"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// HasTag reports whether tag is one of r's tags.
func (r Record) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

// Clone returns a copy of r that shares no memory with it.
func (r Record) Clone() Record {
	r.Tags = slices.Clone(r.Tags)
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}
