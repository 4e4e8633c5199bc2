package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/repository"
	"github.com/and161185/secure-vault/internal/threat"
)

// VaultService defines operations over stored files.
type VaultService interface {
	// Upload screens, encrypts and stores content; returns the new file id.
	Upload(ctx context.Context, id model.Identity, filename string, content []byte) (int64, error)
	// Read returns the decrypted content to the owner or a grantee.
	Read(ctx context.Context, id model.Identity, fileID int64) ([]byte, error)
	// Share grants read access to target. Only the owner may share.
	Share(ctx context.Context, id model.Identity, fileID int64, target string) error
	// Metadata returns the metadata string of any existing file.
	Metadata(ctx context.Context, fileID int64) (string, error)
}

type VaultServiceImpl struct {
	files  repository.FileRepository
	users  repository.UserRepository
	gate   threat.Checker
	cipher pkgcrypto.Cipher
	fp     pkgcrypto.ContentFingerprint
	log    *zap.Logger
}

// NewVaultService constructs VaultService. A nil logger disables logging.
func NewVaultService(files repository.FileRepository, users repository.UserRepository, gate threat.Checker, cipher pkgcrypto.Cipher, fp pkgcrypto.ContentFingerprint, log *zap.Logger) *VaultServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &VaultServiceImpl{files: files, users: users, gate: gate, cipher: cipher, fp: fp, log: log}
}

// BuildMetadata renders the metadata line stored with every file.
func BuildMetadata(owner string, size int, fingerprint string) string {
	return fmt.Sprintf("Owner: %s, Size: %d bytes, Fingerprint: %s", owner, size, fingerprint)
}

// Upload runs the threat gate before anything is encrypted or stored.
func (s *VaultServiceImpl) Upload(ctx context.Context, id model.Identity, filename string, content []byte) (int64, error) {
	if id == "" {
		return 0, errs.ErrUnauthorized
	}
	owner := string(id)
	if err := s.gate.Check(filename, content); err != nil {
		s.log.Warn("upload rejected",
			zap.String("owner", owner),
			zap.Int("filename_len", len(filename)),
			zap.Int("size", len(content)),
			zap.Error(err))
		return 0, err
	}
	ct, err := s.cipher.Encrypt(content)
	if err != nil {
		return 0, fmt.Errorf("encrypt: %w", err)
	}
	fileID, err := s.files.Create(ctx, model.NewFile{
		Owner:      owner,
		Filename:   filename,
		Ciphertext: ct,
		Metadata:   BuildMetadata(owner, len(content), s.fp.Fingerprint(content)),
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", errs.ErrUserNotFound, owner)
		}
		return 0, err
	}
	s.log.Info("file uploaded", zap.Int64("file_id", fileID), zap.String("owner", owner), zap.Int("size", len(content)))
	return fileID, nil
}

func (s *VaultServiceImpl) Read(ctx context.Context, id model.Identity, fileID int64) ([]byte, error) {
	if id == "" {
		return nil, errs.ErrUnauthorized
	}
	f, err := s.get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !f.CanRead(string(id)) {
		s.log.Warn("read denied", zap.Int64("file_id", fileID), zap.String("username", string(id)))
		return nil, errs.ErrAccessDenied
	}
	pt, err := s.cipher.Decrypt(f.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt file %d: %w", fileID, err)
	}
	return pt, nil
}

// Share checks, in order: the file exists, the target exists, the caller owns the file.
// Sharing twice with the same user is a no-op.
func (s *VaultServiceImpl) Share(ctx context.Context, id model.Identity, fileID int64, target string) error {
	if id == "" {
		return errs.ErrUnauthorized
	}
	f, err := s.get(ctx, fileID)
	if err != nil {
		return err
	}
	if _, err := s.users.GetByUsername(ctx, target); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: %s", errs.ErrTargetUserNotFound, target)
		}
		return err
	}
	if !f.IsOwner(string(id)) {
		return errs.ErrNotOwner
	}
	if err := s.files.AddShare(ctx, fileID, target); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrFileNotFound
		}
		return err
	}
	s.log.Info("file shared", zap.Int64("file_id", fileID), zap.String("owner", string(id)), zap.String("target", target))
	return nil
}

// Metadata performs no access check.
func (s *VaultServiceImpl) Metadata(ctx context.Context, fileID int64) (string, error) {
	f, err := s.get(ctx, fileID)
	if err != nil {
		return "", err
	}
	return f.Metadata, nil
}

func (s *VaultServiceImpl) get(ctx context.Context, fileID int64) (*model.FileRecord, error) {
	f, err := s.files.Get(ctx, fileID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", errs.ErrFileNotFound, fileID)
		}
		return nil, err
	}
	return f, nil
}
