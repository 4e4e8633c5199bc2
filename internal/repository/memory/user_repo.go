// Package memory contains in-process implementations of repository interfaces.
// State lives for the lifetime of the process.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/repository"
)

// UserRepo implements UserRepository over a map. Safe for concurrent use.
type UserRepo struct {
	mu     sync.RWMutex
	byName map[string]model.User
}

var _ repository.UserRepository = (*UserRepo)(nil)

// NewUserRepo constructs an empty user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{byName: make(map[string]model.User)}
}

// Create inserts u unless the username is taken.
func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[u.Username]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	cpy.PwdHash = append([]byte(nil), u.PwdHash...)
	cpy.PwdSalt = append([]byte(nil), u.PwdSalt...)
	if cpy.CreatedAt.IsZero() {
		cpy.CreatedAt = time.Now().UTC()
	}
	r.byName[u.Username] = cpy
	return nil
}

// GetByUsername returns a copy of the stored user.
func (r *UserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byName[username]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

// SetSecondFactor updates the flag in place.
func (r *UserRepo) SetSecondFactor(_ context.Context, username string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byName[username]
	if !ok {
		return errs.ErrNotFound
	}
	u.SecondFactor = enabled
	r.byName[username] = u
	return nil
}
