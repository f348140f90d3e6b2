// Copyright (c) 2026 Atelier. All rights reserved.

package sec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords using the bcrypt algorithm with a
// configured work factor.
//
// # Cost
//
// The cost is a deliberate CPU expense: raising it slows brute-force attacks
// at the price of registration/login latency. It is injected from config
// rather than hardcoded so test and production environments can differ.
type Hasher struct {
	cost int
}

// NewHasher constructs a [Hasher]. Costs outside bcrypt's supported range
// fall back to the library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash hashes a plain-text password. The plaintext is never stored or logged.
func (h *Hasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), h.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Compare reports whether a plain-text password matches its hashed version.
// bcrypt's comparison is constant-time to prevent timing attacks.
func (h *Hasher) Compare(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token string.
//
// Refresh tokens are stored server-side only as digests, so a leaked session
// store cannot be replayed directly.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
