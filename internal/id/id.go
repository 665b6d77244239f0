// Package id provides the identifier type shared by every entity kind.
//
// Identifiers are UUIDv7: a millisecond timestamp in the high bits and random
// low bits, so the canonical string form sorts lexicographically in creation
// order. They are generated client-side at creation time; the server never
// assigns ids.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is the canonical string form of a UUIDv7.
type ID string

// New generates a fresh identifier. Successive calls within one process
// produce strictly increasing ids.
func New() ID {
	u, err := uuid.NewV7()
	if err != nil {
		// The only failure mode is the random source; fall back to v4 so
		// creation never blocks the UI.
		u = uuid.New()
	}
	return ID(u.String())
}

// Parse validates a persisted id token and normalizes it to canonical form.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse id %q: %w", s, err)
	}
	return ID(u.String()), nil
}

func (id ID) String() string { return string(id) }

// Less reports creation order; canonical UUIDv7 strings compare bytewise.
func (id ID) Less(other ID) bool { return id < other }
