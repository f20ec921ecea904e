// Package id defines the identifier type of every row the service writes.
package id

import (
	"github.com/google/uuid"
)

// ID is a UUID. New ids are version 7, so receipts, items and ledger rows
// sort by creation time.
type ID = uuid.UUID

// New returns a fresh UUIDv7, falling back to v4 when the clock source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse parses the canonical text form.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// ParseOptional parses s, returning nil for "".
func ParseOptional(s string) (*ID, error) {
	if s == "" {
		return nil, nil
	}
	v, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func Nil() ID { return uuid.Nil }

func IsNil(v ID) bool { return v == uuid.Nil }
