// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/secure-vault/internal/model"
)

// UserRepository is the credential store, keyed by username.
type UserRepository interface {
	// Create inserts a new user; errs.ErrAlreadyExists if the username is taken.
	Create(ctx context.Context, u *model.User) error
	// GetByUsername loads a user; errs.ErrNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// SetSecondFactor updates the second factor flag; errs.ErrNotFound if absent.
	SetSecondFactor(ctx context.Context, username string, enabled bool) error
}
