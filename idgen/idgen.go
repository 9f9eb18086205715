// Package idgen provides ID generation for rankwatch records.
//
// Observation rows use UUIDv7: time-sortable, globally unique, and cheap
// to index since inserts arrive in roughly chronological order.
package idgen

import (
	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// New returns a fresh UUIDv7 string. This is the default strategy for
// ranking observation IDs.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}

// UUIDv7 returns a Generator producing RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return New
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}
