// Package threat implements the pre-acceptance check applied to uploads.
package threat

import (
	"bytes"
	"fmt"

	"github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/errs"
)

// Default bounds.
const (
	DefaultMaxFilenameLen = 100
	DefaultMaxContentLen  = 2000
)

// EICAR test file, used as the built-in digest blacklist entry.
const eicar = `X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

// Config holds the gate's limits and blacklists.
type Config struct {
	MaxFilenameLen  int
	MaxContentLen   int
	Signatures      []string // substrings rejected anywhere in the plaintext
	DigestBlacklist []string // fingerprints rejected on exact match
}

// DefaultConfig returns the built-in limits and blacklists. The digest list
// carries the EICAR digest under both supported fingerprint kinds.
func DefaultConfig() Config {
	return Config{
		MaxFilenameLen: DefaultMaxFilenameLen,
		MaxContentLen:  DefaultMaxContentLen,
		Signatures:     []string{"virus", "malware", "trojan", "ransomware", "keylogger", "<script>"},
		DigestBlacklist: []string{
			crypto.DJB2{}.Fingerprint([]byte(eicar)),
			crypto.SHA256{}.Fingerprint([]byte(eicar)),
		},
	}
}

// Checker validates an upload before it is encrypted and stored.
type Checker interface {
	Check(filename string, content []byte) error
}

// Gate runs the size check, then the content check.
type Gate struct {
	cfg     Config
	fp      crypto.ContentFingerprint
	sigs    [][]byte
	digests map[string]struct{}
}

var _ Checker = (*Gate)(nil)

// NewGate builds a gate; fp must be the fingerprint the digest blacklist was computed with.
func NewGate(cfg Config, fp crypto.ContentFingerprint) *Gate {
	g := &Gate{cfg: cfg, fp: fp, digests: make(map[string]struct{}, len(cfg.DigestBlacklist))}
	for _, s := range cfg.Signatures {
		if s == "" {
			continue
		}
		g.sigs = append(g.sigs, []byte(s))
	}
	for _, d := range cfg.DigestBlacklist {
		g.digests[d] = struct{}{}
	}
	return g
}

// Check returns ErrOversizeInput or ErrMaliciousContentDetected (wrapped), or nil.
// Size is always checked first.
func (g *Gate) Check(filename string, content []byte) error {
	if len(filename) > g.cfg.MaxFilenameLen {
		return fmt.Errorf("%w: filename is %d bytes, limit %d", errs.ErrOversizeInput, len(filename), g.cfg.MaxFilenameLen)
	}
	if len(content) > g.cfg.MaxContentLen {
		return fmt.Errorf("%w: content is %d bytes, limit %d", errs.ErrOversizeInput, len(content), g.cfg.MaxContentLen)
	}

	for _, sig := range g.sigs {
		if bytes.Contains(content, sig) {
			return fmt.Errorf("%w: signature %q", errs.ErrMaliciousContentDetected, sig)
		}
	}
	if _, bad := g.digests[g.fp.Fingerprint(content)]; bad {
		return fmt.Errorf("%w: blacklisted fingerprint", errs.ErrMaliciousContentDetected)
	}
	return nil
}
