package crypto

import (
	"bytes"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 64
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal; looks non-random", n)
	}

	zero := make([]byte, n)
	if bytes.Equal(a, zero) {
		t.Fatalf("RandBytes returned all zeros")
	}
}

func TestHashPassword_DeterministicOnSameInput(t *testing.T) {
	t.Parallel()

	pw := []byte("p@ssw0rd")
	salt := []byte("NaCl-16-bytes?")

	h1 := HashPassword(pw, salt)
	h2 := HashPassword(pw, salt)

	if len(h1) == 0 || len(h2) == 0 {
		t.Fatalf("empty hash")
	}
	if !bytes.Equal(h1, h2) {
		t.Fatalf("hash not deterministic for same input")
	}

	h3 := HashPassword(pw, []byte("another-salt----"))
	if bytes.Equal(h1, h3) {
		t.Fatalf("hash should differ when salt differs")
	}

	h4 := HashPassword([]byte("p@ssw0rd!"), salt)
	if bytes.Equal(h1, h4) {
		t.Fatalf("hash should differ when password differs")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	pw := []byte("correct horse battery staple")
	salt := []byte("salty-salt-123456")

	hash := HashPassword(pw, salt)

	if !VerifyPassword(pw, salt, hash) {
		t.Fatalf("VerifyPassword: expected true for correct password")
	}
	if VerifyPassword([]byte("wrong"), salt, hash) {
		t.Fatalf("VerifyPassword: expected false for wrong password")
	}
	if VerifyPassword(pw, []byte("wrong-salt"), hash) {
		t.Fatalf("VerifyPassword: expected false for wrong salt")
	}
	if VerifyPassword([]byte{}, salt, hash) {
		t.Fatalf("VerifyPassword: expected false for empty password")
	}
}

func TestArgon2Hasher_SaltedRoundTrip(t *testing.T) {
	t.Parallel()

	var h Argon2Hasher
	hash1, salt1, err := h.Hash([]byte("pw1"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if len(salt1) != saltLen {
		t.Fatalf("salt len=%d, want %d", len(salt1), saltLen)
	}
	hash2, salt2, err := h.Hash([]byte("pw1"))
	if err != nil {
		t.Fatalf("Hash(2): %v", err)
	}
	if bytes.Equal(salt1, salt2) || bytes.Equal(hash1, hash2) {
		t.Fatalf("same password must hash differently under fresh salts")
	}
	if !h.Verify([]byte("pw1"), salt1, hash1) || !h.Verify([]byte("pw1"), salt2, hash2) {
		t.Fatalf("Verify: expected true for correct password")
	}
	if h.Verify([]byte("pw2"), salt1, hash1) {
		t.Fatalf("Verify: expected false for wrong password")
	}
}

func TestLegacyHasher(t *testing.T) {
	t.Parallel()

	var h LegacyHasher
	hash, salt, err := h.Hash([]byte("pw1"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if salt != nil {
		t.Fatalf("legacy hasher must not salt")
	}
	if string(hash) != DJB2Digest([]byte("pw1")) {
		t.Fatalf("legacy hash must be the djb2 digest")
	}
	if !h.Verify([]byte("pw1"), nil, hash) {
		t.Fatalf("Verify: expected true for correct password")
	}
	if h.Verify([]byte("pw2"), nil, hash) {
		t.Fatalf("Verify: expected false for wrong password")
	}
}
