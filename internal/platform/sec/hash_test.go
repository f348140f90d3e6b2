// Copyright (c) 2026 Atelier. All rights reserved.

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atelierhq/atelier-api/internal/platform/sec"
)

/*
TestHasher_HashAndCompare verifies the bcrypt round trip.
*/
func TestHasher_HashAndCompare(t *testing.T) {
	hasher := sec.NewHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("Sup3rsecret")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Sup3rsecret", hash)

	assert.True(t, hasher.Compare("Sup3rsecret", hash))
	assert.False(t, hasher.Compare("wrong-password", hash))
	assert.False(t, hasher.Compare("Sup3rsecret", "not-a-bcrypt-hash"))
}

/*
TestHasher_CostClamping verifies that out-of-range costs fall back to the
bcrypt default instead of failing.
*/
func TestHasher_CostClamping(t *testing.T) {
	tests := []struct {
		name string
		cost int
	}{
		{"below_range", bcrypt.MinCost - 10},
		{"above_range", bcrypt.MaxCost + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hasher := sec.NewHasher(tt.cost)

			hash, err := hasher.Hash("Sup3rsecret")
			require.NoError(t, err)

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			assert.Equal(t, bcrypt.DefaultCost, cost)
		})
	}
}

/*
TestHashToken verifies that token hashing is deterministic and one-way.
*/
func TestHashToken(t *testing.T) {
	first := sec.HashToken("some-refresh-token")
	second := sec.HashToken("some-refresh-token")
	other := sec.HashToken("another-token")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64) // hex-encoded SHA-256
	assert.NotContains(t, first, "some-refresh-token")
}
