package crypto

import "errors"

// Cipher protects file content at rest.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// ErrEmptyKey is returned when a cipher is configured without key material.
var ErrEmptyKey = errors.New("cipher: empty key")

// Transform XORs data with key repeated cyclically. It is its own inverse.
// key must not be empty.
func Transform(data, key []byte) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ key[i%len(key)]
	}
	return out
}

// XORCipher applies Transform with a fixed key. It offers no semantic
// security against known-plaintext or frequency analysis.
type XORCipher struct {
	key []byte
}

var _ Cipher = (*XORCipher)(nil)

// NewXORCipher constructs an XORCipher; the key is copied.
func NewXORCipher(key []byte) (*XORCipher, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &XORCipher{key: append([]byte(nil), key...)}, nil
}

// Encrypt returns Transform(plaintext, key).
func (c *XORCipher) Encrypt(plaintext []byte) ([]byte, error) {
	return Transform(plaintext, c.key), nil
}

// Decrypt returns Transform(ciphertext, key).
func (c *XORCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	return Transform(ciphertext, c.key), nil
}
