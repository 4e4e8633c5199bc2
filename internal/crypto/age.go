package crypto

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// AgeCipher encrypts content to an X25519 age identity held by the server.
type AgeCipher struct {
	identity *age.X25519Identity
}

var _ Cipher = (*AgeCipher)(nil)

// NewAgeCipher parses an "AGE-SECRET-KEY-1..." identity.
func NewAgeCipher(secretKey string) (*AgeCipher, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, ErrEmptyKey
	}
	id, err := age.ParseX25519Identity(secretKey)
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}
	return &AgeCipher{identity: id}, nil
}

// Encrypt writes an age file addressed to the identity's recipient.
func (c *AgeCipher) Encrypt(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, c.identity.Recipient())
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return buf.Bytes(), nil
}

// Decrypt opens an age file with the identity.
func (c *AgeCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), c.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting data: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}
	return out, nil
}
