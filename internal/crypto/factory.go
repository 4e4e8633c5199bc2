package crypto

import "fmt"

// Kinds accepted by the factories below.
const (
	CipherXOR     = "xor"
	CipherXChaCha = "xchacha20poly1305"
	CipherAge     = "age"

	HasherLegacy = "legacy"
	HasherArgon2 = "argon2"

	FingerprintDJB2   = "djb2"
	FingerprintSHA256 = "sha256"
)

// NewCipher creates a Cipher of the given kind keyed with key.
func NewCipher(kind, key string) (Cipher, error) {
	switch kind {
	case CipherXOR, "":
		return NewXORCipher([]byte(key))
	case CipherXChaCha:
		return NewAEADCipher([]byte(key))
	case CipherAge:
		return NewAgeCipher(key)
	default:
		return nil, fmt.Errorf("unknown cipher kind: %q", kind)
	}
}

// NewPasswordHasher returns the hasher registered under kind.
func NewPasswordHasher(kind string) (PasswordHasher, error) {
	switch kind {
	case HasherLegacy, "":
		return LegacyHasher{}, nil
	case HasherArgon2:
		return Argon2Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hash kind: %q", kind)
	}
}

// NewFingerprint returns the content fingerprint registered under kind.
func NewFingerprint(kind string) (ContentFingerprint, error) {
	switch kind {
	case FingerprintDJB2, "":
		return DJB2{}, nil
	case FingerprintSHA256:
		return SHA256{}, nil
	default:
		return nil, fmt.Errorf("unknown fingerprint kind: %q", kind)
	}
}
