package crypto

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const contentKeyInfo = "secure-vault content v1"

// AEADCipher encrypts content with XChaCha20-Poly1305. Output is nonce||sealed.
type AEADCipher struct {
	key []byte
}

var _ Cipher = (*AEADCipher)(nil)

// NewAEADCipher derives a 32-byte content key from secret via HKDF-SHA256.
func NewAEADCipher(secret []byte) (*AEADCipher, error) {
	if len(secret) == 0 {
		return nil, ErrEmptyKey
	}
	r := hkdf.New(sha256.New, secret, nil, []byte(contentKeyInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return &AEADCipher{key: key}, nil
}

// Encrypt seals plaintext under a random nonce.
func (c *AEADCipher) Encrypt(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}
	nonce, err := RandBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, nil)...)
	return out, nil
}

// Decrypt opens a blob produced by Encrypt.
func (c *AEADCipher) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("blob too short")
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, ct, nil)
}
