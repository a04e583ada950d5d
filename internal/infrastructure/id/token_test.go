package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsUniqueToken(t *testing.T) {
	gen := NewTokenGenerator()
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		v := gen.NewID()
		require.Len(t, v, 36)
		_, err := uuid.Parse(v)
		require.NoError(t, err)
		_, dup := seen[v]
		require.False(t, dup)
		seen[v] = struct{}{}
	}
}

// Every one of the 128 bits is random, so the version and variant nibbles vary.
func TestNewIDUsesAllBits(t *testing.T) {
	gen := NewTokenGenerator()
	versions := map[uuid.Version]struct{}{}
	variants := map[byte]struct{}{}
	for range 1000 {
		u := uuid.MustParse(gen.NewID())
		versions[u.Version()] = struct{}{}
		variants[u[8]>>6] = struct{}{}
	}
	assert.Greater(t, len(versions), 1)
	assert.Len(t, variants, 4)
}
