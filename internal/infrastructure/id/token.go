// Package id issues session identifiers.
package id

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// TokenGenerator issues 128-bit random session tokens in the 8-4-4-4-12 hex
// layout. Unlike a version 4 UUID no bits are reserved for version or variant.
type TokenGenerator struct{}

func NewTokenGenerator() TokenGenerator {
	return TokenGenerator{}
}

func (TokenGenerator) NewID() string {
	var token uuid.UUID
	// crypto/rand.Read does not return an error since Go 1.24; it aborts the process instead.
	_, _ = rand.Read(token[:])
	return token.String()
}
