package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// ContentFingerprint identifies content for blacklist checks and metadata.
type ContentFingerprint interface {
	Fingerprint(content []byte) string
}

// DJB2Digest computes h = h*33 + b from 5381 with uint64 wrap-around and
// renders it in decimal. Bytes are added unsigned (0..255). Not collision
// resistant.
func DJB2Digest(b []byte) string {
	var h uint64 = 5381
	for _, c := range b {
		h = (h << 5) + h + uint64(c)
	}
	return strconv.FormatUint(h, 10)
}

// DJB2 is the default content fingerprint.
type DJB2 struct{}

// Fingerprint returns DJB2Digest(content).
func (DJB2) Fingerprint(content []byte) string { return DJB2Digest(content) }

// SHA256 fingerprints content with lowercase hex SHA-256.
type SHA256 struct{}

// Fingerprint returns the hex SHA-256 of content.
func (SHA256) Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
