// Package model defines domain entities used by services and repositories.
package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/secure-vault/internal/errs"
)

// Identity is the authenticated username handed to vault operations.
type Identity string

// Session is one completed login. ID is carried by the access token so the
// token dies with the session.
type Session struct {
	Identity Identity
	ID       string
}

// Tokens collects an issued access token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents a registered account. The password is never stored in plaintext.
type User struct {
	ID           uuid.UUID // surrogate PK
	Username     string    // unique
	PwdHash      []byte    // PasswordHasher output
	PwdSalt      []byte    // empty for unsalted hashers
	SecondFactor bool      // one-time code required at login
	CreatedAt    time.Time
}

// LoginOutcome reports the result of a password check.
// Session is set only when SecondFactorRequired is false.
type LoginOutcome struct {
	Session
	SecondFactorRequired bool
}

// NewFile is a validated, already encrypted upload ready to be stored.
type NewFile struct {
	Owner      string
	Filename   string
	Ciphertext []byte
	Metadata   string
}

// FileRecord is a stored artifact. Content is immutable; SharedWith only grows.
type FileRecord struct {
	ID         int64
	Owner      string
	Filename   string
	Ciphertext []byte
	Metadata   string
	SharedWith []string
	CreatedAt  time.Time
}

// IsOwner reports whether username owns the file.
func (f *FileRecord) IsOwner(username string) bool {
	return f.Owner == username
}

// CanRead reports whether username may read the content: owner or shared user.
func (f *FileRecord) CanRead(username string) bool {
	return f.IsOwner(username) || slices.Contains(f.SharedWith, username)
}

// ParseFileID converts user input into a file id.
func ParseFileID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidIDFormat, s)
	}
	if id < 1 {
		return 0, fmt.Errorf("%w: %d is not positive", errs.ErrInvalidIDFormat, id)
	}
	return id, nil
}
