package utils

import (
	"errors"
	"fmt"

	"propelize/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost keeps an interactive login well under 200ms on common hardware.
const DefaultBcryptCost = bcrypt.DefaultCost

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
	// dummyDigest has the same cost as real digests so that a login for an
	// unknown email takes as long as one with a wrong password.
	dummyDigest []byte
}

// NewPasswordHasher creates a PasswordHasher with the given work factor.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("propelize-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy digest: %w", err)
	}
	return &PasswordHasher{cost: cost, dummyDigest: dummy}, nil
}

// Cost returns the configured work factor.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt digest of password. Two calls never return the same digest.
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Validation("invalid request data", "password must be at most 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// Verify compares password against digest in constant time.
func (h *PasswordHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// VerifyDummy spends the same work as Verify and always reports false.
func (h *PasswordHasher) VerifyDummy(password string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummyDigest, []byte(password))
	return false
}
