package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/repository"
)

// FileRepo implements FileRepository. The id counter is advanced under the
// same lock as the insert, so ids are unique and strictly increasing.
type FileRepo struct {
	mu     sync.RWMutex
	files  map[int64]*model.FileRecord
	nextID int64
}

var _ repository.FileRepository = (*FileRepo)(nil)

// NewFileRepo constructs an empty file repository; the first id is 1.
func NewFileRepo() *FileRepo {
	return &FileRepo{files: make(map[int64]*model.FileRecord), nextID: 1}
}

// Create stores f under the next id.
func (r *FileRepo) Create(_ context.Context, f model.NewFile) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.files[id] = &model.FileRecord{
		ID:         id,
		Owner:      f.Owner,
		Filename:   f.Filename,
		Ciphertext: append([]byte(nil), f.Ciphertext...),
		Metadata:   f.Metadata,
		CreatedAt:  time.Now().UTC(),
	}
	return id, nil
}

// Get returns a deep copy of the record.
func (r *FileRepo) Get(_ context.Context, id int64) (*model.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.files[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *f
	cpy.Ciphertext = append([]byte(nil), f.Ciphertext...)
	cpy.SharedWith = slices.Clone(f.SharedWith)
	return &cpy, nil
}

// AddShare appends username unless already present.
func (r *FileRepo) AddShare(_ context.Context, id int64, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok {
		return errs.ErrNotFound
	}
	if !slices.Contains(f.SharedWith, username) {
		f.SharedWith = append(f.SharedWith, username)
	}
	return nil
}
