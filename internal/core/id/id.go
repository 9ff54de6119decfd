// Package id provides identifier generation for persisted rows and token IDs.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID, used for all persisted entities.
type ID = uuid.UUID

// New generates a time-ordered UUIDv7 for row primary keys.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// NewTokenID returns a random v4 identifier for a signed token's jti claim.
func NewTokenID() string {
	return uuid.NewString()
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
