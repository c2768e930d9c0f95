// Package parser normalises the hash, name and tag values submitted for a
// new record.
package parser

import (
	"errors"
	"regexp"
	"strings"
)

// Limits on submitted values.
const (
	MaxNameLen = 100
	MaxTags    = 10
	MaxTagLen  = 20
)

var (
	// HashPattern matches a base58 CIDv0 multihash.
	HashPattern = regexp.MustCompile(`^Qm[1-9A-HJ-NP-Za-km-z]{44,45}$`)

	nonAlnumRe = regexp.MustCompile(`[^A-Za-z0-9]`)
)

var (
	ErrTooManyTags = errors.New("too many tags")
	ErrTagTooLong  = errors.New("tag too long")
)

// Tags splits a comma-separated tag list. Characters other than ASCII
// letters and digits are removed, empty tags are dropped and duplicates
// are removed, keeping the first occurrence.
func Tags(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	if len(parts) > MaxTags {
		return nil, ErrTooManyTags
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := nonAlnumRe.ReplaceAllString(p, "")
		if t == "" {
			continue
		}
		if len(t) > MaxTagLen {
			return nil, ErrTagTooLong
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// Tag cleans a single tag taken from a URL: it is cut to MaxTagLen
// characters and then stripped of anything that is not a letter or digit.
// The result may be empty.
func Tag(raw string) string {
	if r := []rune(raw); len(r) > MaxTagLen {
		raw = string(r[:MaxTagLen])
	}
	return nonAlnumRe.ReplaceAllString(raw, "")
}
