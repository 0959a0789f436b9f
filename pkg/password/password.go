// Package password provides pluggable password verification strategies.
//
// Verifiers are pure and perform no I/O. Every implementation must use a
// constant-time comparison so that verification latency does not depend
// on how much of the candidate matches.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned when a candidate does not match the stored hash.
var ErrMismatch = errors.New("password does not match hash")

// Verifier checks a plaintext candidate against a stored hash. The gate
// treats it as an opaque capability; swapping hashing schemes never
// changes gate behavior.
type Verifier interface {
	Verify(candidate string, hash []byte) error
}

// Hasher produces stored hashes in a verifier's format. Used by seeding
// and operator tooling, never by the request path.
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
}

// Bcrypt verifies against bcrypt hashes. The zero value uses
// bcrypt.DefaultCost for hashing.
type Bcrypt struct {
	// Cost applies to Hash only; verification reads the cost from the hash.
	Cost int
}

// Verify compares candidate against a bcrypt hash.
func (b *Bcrypt) Verify(candidate string, hash []byte) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(candidate)); err != nil {
		return ErrMismatch
	}
	return nil
}

// Hash generates a bcrypt hash. It errors if the plaintext is longer
// than 72 bytes.
func (b *Bcrypt) Hash(plaintext string) ([]byte, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(plaintext), cost)
}

// SHA256Hex verifies against hex-encoded SHA-256 digests using a
// constant-time comparison. Intended for migrating stores that predate
// an adaptive hash; prefer Bcrypt for new deployments.
type SHA256Hex struct{}

// Verify compares the SHA-256 digest of candidate against a hex-encoded
// stored digest.
func (SHA256Hex) Verify(candidate string, hash []byte) error {
	stored, err := hex.DecodeString(string(hash))
	if err != nil || len(stored) != sha256.Size {
		return ErrMismatch
	}
	sum := sha256.Sum256([]byte(candidate))
	if subtle.ConstantTimeCompare(sum[:], stored) != 1 {
		return ErrMismatch
	}
	return nil
}

// Hash returns the hex-encoded SHA-256 digest of plaintext.
func (SHA256Hex) Hash(plaintext string) ([]byte, error) {
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(hex.EncodeToString(sum[:])), nil
}
