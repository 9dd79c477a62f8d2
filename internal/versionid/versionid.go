// Package versionid mints the identifiers that distinguish stored versions
// of a document.
//
// Identifiers are RFC 9562 version 7 UUIDs: a 48-bit Unix millisecond
// timestamp followed by a sub-millisecond sequence and random bits. The
// library keeps the timestamp/sequence pair strictly increasing within the
// process, and the canonical lowercase form sorts byte-wise in creation
// order, so the string can be used directly as a clustering column.
package versionid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator mints version identifiers. Construct it with New.
//
// Generator is safe for concurrent use.
type Generator struct{}

// New returns a Generator after confirming that the clock and the random
// source work. An error here is a startup failure.
func New() (*Generator, error) {
	if _, err := uuid.NewV7(); err != nil {
		return nil, fmt.Errorf("version id source unavailable: %w", err)
	}
	return &Generator{}, nil
}

// Mint returns a fresh identifier. It never fails once New has succeeded.
func (g *Generator) Mint() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Canonical returns s in the canonical lowercase form when it is a UUID of
// any version. Ids are opaque to readers, so a well-formed id minted
// elsewhere is still looked up. ok is false when s is not a UUID at all; such
// an id cannot name a stored version.
func Canonical(s string) (id string, ok bool) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
