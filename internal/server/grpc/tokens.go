package grpcserver

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/secure-vault/internal/model"
)

// TokenIssuer signs and verifies HS256 access tokens. The subject is the
// username and the token id (jti) is the session id.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer constructs an issuer with the given signing key and token lifetime.
func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: key, ttl: ttl, now: time.Now}
}

// Issue returns a signed access token bound to sess.
func (t *TokenIssuer) Issue(sess model.Session) (model.Tokens, error) {
	if sess.Identity == "" {
		return model.Tokens{}, errors.New("empty identity")
	}
	if sess.ID == "" {
		return model.Tokens{}, errors.New("empty session id")
	}
	now := t.now().UTC()
	exp := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   string(sess.Identity),
		ID:        sess.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: s, ExpiresAt: exp}, nil
}

// Parse verifies the signature and time claims and returns the session.
func (t *TokenIssuer) Parse(token string) (model.Session, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tk *jwt.Token) (any, error) {
		if tk.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.key, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithLeeway(30*time.Second), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return model.Session{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return model.Session{}, errors.New("bad subject")
	}
	if claims.ID == "" {
		return model.Session{}, errors.New("no session id")
	}
	return model.Session{Identity: model.Identity(claims.Subject), ID: claims.ID}, nil
}
