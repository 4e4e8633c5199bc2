// Package service contains application services for authentication and the file vault.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/limiter"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/otp"
	"github.com/and161185/secure-vault/internal/repository"
)

// AuthService defines registration, login and session operations.
type AuthService interface {
	// Register creates a new user. It does not log the user in.
	Register(ctx context.Context, username, password string) error
	// Login checks the password and either completes the login or issues a one-time code.
	Login(ctx context.Context, username, password string) (model.LoginOutcome, error)
	// SubmitSecondFactor completes a login that is awaiting a one-time code.
	SubmitSecondFactor(ctx context.Context, username, code string) (model.Session, error)
	// EnableSecondFactor turns on the one-time code for the caller's own account.
	EnableSecondFactor(ctx context.Context, id model.Identity) error
	// Logout ends every session of the user and drops any pending code.
	Logout(ctx context.Context, id model.Identity)
	// Authenticated reports whether id currently has a completed login.
	Authenticated(id model.Identity) bool
	// Active reports whether sess is still a live session.
	Active(sess model.Session) bool
	// State returns the session state of username.
	State(username string) SessionState
}

type AuthServiceImpl struct {
	users    repository.UserRepository
	hasher   pkgcrypto.PasswordHasher
	codes    otp.Generator
	notifier otp.Notifier
	lim      limiter.Limiter // nil: no attempt limiting
	codeTTL  time.Duration   // 0: codes never expire
	sessions *sessionTable
	log      *zap.Logger
	now      func() time.Time
}

// AuthOption configures optional AuthServiceImpl behaviour.
type AuthOption func(*AuthServiceImpl)

// WithLimiter enables attempt limiting for login and code submission.
func WithLimiter(l limiter.Limiter) AuthOption {
	return func(s *AuthServiceImpl) { s.lim = l }
}

// WithCodeTTL makes one-time codes expire after d.
func WithCodeTTL(d time.Duration) AuthOption {
	return func(s *AuthServiceImpl) { s.codeTTL = d }
}

// WithAuthLogger sets the logger.
func WithAuthLogger(log *zap.Logger) AuthOption {
	return func(s *AuthServiceImpl) {
		if log != nil {
			s.log = log
		}
	}
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, hasher pkgcrypto.PasswordHasher, codes otp.Generator, notifier otp.Notifier, opts ...AuthOption) *AuthServiceImpl {
	s := &AuthServiceImpl{
		users:    users,
		hasher:   hasher,
		codes:    codes,
		notifier: notifier,
		sessions: newSessionTable(),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func loginKey(username string) string { return "login:" + username }
func otpKey(username string) string   { return "otp:" + username }

// Register hashes the password and stores a new user with the second factor off.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: empty username/password", errs.ErrInvalidInput)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return err
	}
	hash, salt, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return err
	}
	u := &model.User{
		ID:       uid,
		Username: username,
		PwdHash:  hash,
		PwdSalt:  salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return fmt.Errorf("%w: %s", errs.ErrDuplicateUser, username)
		}
		return err
	}
	s.log.Info("user registered", zap.String("username", username))
	return nil
}

// Login authenticates the password. Without a second factor the user is
// logged in immediately; otherwise a code is issued and delivered.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (model.LoginOutcome, error) {
	key := loginKey(username)
	if err := s.allow(ctx, key); err != nil {
		return model.LoginOutcome{}, err
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			if s.failure(ctx, key) {
				return model.LoginOutcome{}, errs.ErrRateLimited
			}
			return model.LoginOutcome{}, errs.ErrUserNotFound
		}
		return model.LoginOutcome{}, err
	}
	if !s.hasher.Verify([]byte(password), u.PwdSalt, u.PwdHash) {
		if s.failure(ctx, key) {
			return model.LoginOutcome{}, errs.ErrRateLimited
		}
		s.log.Info("login rejected", zap.String("username", username))
		return model.LoginOutcome{}, errs.ErrInvalidCredentials
	}
	s.success(ctx, key)

	if !u.SecondFactor {
		sid, err := newSessionID()
		if err != nil {
			return model.LoginOutcome{}, err
		}
		s.sessions.open(username, sid)
		s.log.Info("login", zap.String("username", username))
		return model.LoginOutcome{Session: model.Session{Identity: model.Identity(username), ID: sid}}, nil
	}

	code, err := s.codes.Generate()
	if err != nil {
		return model.LoginOutcome{}, err
	}
	s.sessions.setPending(username, code, s.now())
	if err := s.notifier.Notify(ctx, username, code); err != nil {
		s.sessions.dropPending(username)
		return model.LoginOutcome{}, fmt.Errorf("deliver one-time code: %w", err)
	}
	s.log.Info("second factor challenge issued", zap.String("username", username))
	return model.LoginOutcome{SecondFactorRequired: true}, nil
}

// SubmitSecondFactor completes a pending login. A wrong code leaves the
// challenge pending so the caller may retry.
func (s *AuthServiceImpl) SubmitSecondFactor(ctx context.Context, username, code string) (model.Session, error) {
	key := otpKey(username)
	if err := s.allow(ctx, key); err != nil {
		return model.Session{}, err
	}
	sid, err := newSessionID()
	if err != nil {
		return model.Session{}, err
	}

	switch s.sessions.verify(username, code, sid, s.now(), s.codeTTL) {
	case verifyOK:
		s.success(ctx, key)
		s.log.Info("login", zap.String("username", username), zap.Bool("second_factor", true))
		return model.Session{Identity: model.Identity(username), ID: sid}, nil
	case verifyNoChallenge:
		return model.Session{}, fmt.Errorf("%w: no pending challenge", errs.ErrInvalidOTP)
	case verifyExpired:
		return model.Session{}, fmt.Errorf("%w: code expired", errs.ErrInvalidOTP)
	default:
		if s.failure(ctx, key) {
			return model.Session{}, errs.ErrRateLimited
		}
		s.log.Info("one-time code rejected", zap.String("username", username))
		return model.Session{}, errs.ErrInvalidOTP
	}
}

// EnableSecondFactor is idempotent.
func (s *AuthServiceImpl) EnableSecondFactor(ctx context.Context, id model.Identity) error {
	if id == "" {
		return errs.ErrUnauthorized
	}
	if err := s.users.SetSecondFactor(ctx, string(id), true); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrUserNotFound
		}
		return err
	}
	s.log.Info("second factor enabled", zap.String("username", string(id)))
	return nil
}

// Logout ends every session of id from any state.
func (s *AuthServiceImpl) Logout(_ context.Context, id model.Identity) {
	s.sessions.clear(string(id))
	s.log.Info("logout", zap.String("username", string(id)))
}

// Authenticated reports whether id holds at least one live session.
func (s *AuthServiceImpl) Authenticated(id model.Identity) bool {
	return id != "" && s.sessions.loggedIn(string(id))
}

// Active reports whether sess was opened by a login and not ended since.
func (s *AuthServiceImpl) Active(sess model.Session) bool {
	return sess.Identity != "" && s.sessions.active(string(sess.Identity), sess.ID)
}

// State returns the session state of username.
func (s *AuthServiceImpl) State(username string) SessionState {
	return s.sessions.state(username)
}

func (s *AuthServiceImpl) allow(ctx context.Context, key string) error {
	if s.lim == nil {
		return nil
	}
	ok, retry, err := s.lim.Allow(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: retry in %s", errs.ErrRateLimited, retry.Round(time.Second))
	}
	return nil
}

// failure records a failed attempt and reports whether the key is now blocked.
func (s *AuthServiceImpl) failure(ctx context.Context, key string) bool {
	if s.lim == nil {
		return false
	}
	blocked, _, err := s.lim.Failure(ctx, key)
	return err == nil && blocked
}

// success resets counters (best-effort).
func (s *AuthServiceImpl) success(ctx context.Context, key string) {
	if s.lim == nil {
		return
	}
	_ = s.lim.Success(ctx, key)
}
