package repository

import (
	"context"

	"github.com/and161185/secure-vault/internal/model"
)

// FileRepository stores encrypted file records.
type FileRepository interface {
	// Create stores f and returns its id. Ids are assigned monotonically from 1.
	Create(ctx context.Context, f model.NewFile) (int64, error)

	// Get returns a record with its share list; errs.ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*model.FileRecord, error)

	// AddShare grants username read access. Repeating a grant is a no-op.
	AddShare(ctx context.Context, id int64, username string) error
}
