// Package crypto implements password hashing, content fingerprints and the
// content-at-rest ciphers used by the vault.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32

	saltLen = 16
)

// PasswordHasher turns passwords into stored verifiers.
type PasswordHasher interface {
	// Hash returns the verifier and the salt it was produced with (nil if unsalted).
	Hash(password []byte) (hash, salt []byte, err error)
	// Verify reports whether password matches the stored verifier.
	Verify(password, salt, hash []byte) bool
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns Argon2id hash of password using the provided salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// VerifyPassword verifies password against expected Argon2id hash and salt.
func VerifyPassword(password, salt, expected []byte) bool {
	got := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// Argon2Hasher hashes with Argon2id and a per-user random salt.
type Argon2Hasher struct{}

var _ PasswordHasher = Argon2Hasher{}

// Hash generates a fresh salt and returns the Argon2id verifier.
func (Argon2Hasher) Hash(password []byte) ([]byte, []byte, error) {
	salt, err := RandBytes(saltLen)
	if err != nil {
		return nil, nil, err
	}
	return HashPassword(password, salt), salt, nil
}

// Verify checks password against an Argon2id verifier.
func (Argon2Hasher) Verify(password, salt, hash []byte) bool {
	return VerifyPassword(password, salt, hash)
}

// LegacyHasher stores the unsalted DJB2 digest of the password.
// It is weak; prefer Argon2Hasher for new deployments.
type LegacyHasher struct{}

var _ PasswordHasher = LegacyHasher{}

// Hash returns the DJB2 digest; salt is always nil.
func (LegacyHasher) Hash(password []byte) ([]byte, []byte, error) {
	return []byte(DJB2Digest(password)), nil, nil
}

// Verify compares digests in constant time. Salt is ignored.
func (LegacyHasher) Verify(password, _, hash []byte) bool {
	return subtle.ConstantTimeCompare([]byte(DJB2Digest(password)), hash) == 1
}
