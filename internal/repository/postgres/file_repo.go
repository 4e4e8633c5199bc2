package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/repository"
)

// FileRepo implements FileRepository using PostgreSQL. Ids come from an
// identity column, which never reuses values.
type FileRepo struct{ db *DB }

var _ repository.FileRepository = (*FileRepo)(nil)

// NewFileRepo constructs a file repository.
func NewFileRepo(db *DB) *FileRepo { return &FileRepo{db: db} }

// Create inserts a file row and returns the generated id.
func (r *FileRepo) Create(ctx context.Context, f model.NewFile) (int64, error) {
	const q = `
INSERT INTO files (owner, filename, ciphertext, metadata)
VALUES ($1, $2, $3, $4)
RETURNING id`
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, f.Owner, f.Filename, f.Ciphertext, f.Metadata).Scan(&id); err != nil {
		if isForeignKeyViolation(err) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

// Get selects a file row and its share list.
func (r *FileRepo) Get(ctx context.Context, id int64) (*model.FileRecord, error) {
	const q = `
SELECT id, owner, filename, ciphertext, metadata, created_at
FROM files WHERE id=$1`
	var f model.FileRecord
	err := r.db.Pool.QueryRow(ctx, q, id).
		Scan(&f.ID, &f.Owner, &f.Filename, &f.Ciphertext, &f.Metadata, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	const qs = `SELECT username FROM file_shares WHERE file_id=$1 ORDER BY granted_at, username`
	rows, err := r.db.Pool.Query(ctx, qs, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		f.SharedWith = append(f.SharedWith, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &f, nil
}

// AddShare inserts a grant; the (file_id, username) key makes repeats no-ops.
func (r *FileRepo) AddShare(ctx context.Context, id int64, username string) error {
	const q = `
INSERT INTO file_shares (file_id, username)
VALUES ($1, $2)
ON CONFLICT (file_id, username) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, id, username)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}
