package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/crado00/authkit/pkg/config"
)

// Hasher is the one-way password hashing port. Hash output is self-describing
// (algorithm prefix, cost, embedded salt), so Verify keeps working across cost
// changes and future prefix upgrades.
type Hasher interface {
	Hash(cleartext string) (string, error)
	Verify(cleartext, encoded string) bool
}

const (
	minBcryptCost = 10
	maxBcryptCost = bcrypt.MaxCost
)

// BcryptHasher hashes passwords with bcrypt at a configurable work factor.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher builds a hasher from config, clamping the cost into the
// supported range. Costs below 10 are refused rather than honored.
func NewBcryptHasher(cfg config.PasswordConfig) *BcryptHasher {
	return &BcryptHasher{cost: clampCost(cfg.BcryptCost)}
}

// Cost returns the effective work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a salted bcrypt hash. Two calls on the same input yield
// different strings because bcrypt generates a fresh salt per call.
func (h *BcryptHasher) Hash(cleartext string) (string, error) {
	if cleartext == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	raw, err := bcrypt.GenerateFromPassword([]byte(cleartext), h.cost)
	if err != nil {
		return "", fmt.Errorf("generate bcrypt hash: %w", err)
	}
	return string(raw), nil
}

// Verify compares cleartext against a stored hash in constant time. Malformed
// input is reported as a plain mismatch, never an error.
func (h *BcryptHasher) Verify(cleartext, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(cleartext)) == nil
}

func clampCost(cost int) int {
	if cost < minBcryptCost {
		return minBcryptCost
	}
	if cost > maxBcryptCost {
		return maxBcryptCost
	}
	return cost
}
