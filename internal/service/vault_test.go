package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/repository/memory"
	"github.com/and161185/secure-vault/internal/threat"
)

type brokenFiles struct {
	getErr    error
	createErr error
}

func (b *brokenFiles) Create(context.Context, model.NewFile) (int64, error) { return 0, b.createErr }
func (b *brokenFiles) Get(context.Context, int64) (*model.FileRecord, error) {
	return nil, b.getErr
}
func (b *brokenFiles) AddShare(context.Context, int64, string) error { return nil }

type failingCipher struct{}

func (failingCipher) Encrypt([]byte) ([]byte, error) { return nil, errors.New("enc") }
func (failingCipher) Decrypt([]byte) ([]byte, error) { return nil, errors.New("dec") }

func newTestVault(t *testing.T) (*VaultServiceImpl, *memory.FileRepo, *memory.UserRepo) {
	t.Helper()
	files := memory.NewFileRepo()
	users := memory.NewUserRepo()
	cipher, err := pkgcrypto.NewXORCipher([]byte("MySecretKey123"))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	fp := pkgcrypto.DJB2{}
	s := NewVaultService(files, users, threat.NewGate(threat.DefaultConfig(), fp), cipher, fp, nil)
	for _, name := range []string{"alice", "bob"} {
		if err := users.Create(context.Background(), &model.User{Username: name}); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	return s, files, users
}

func TestVault_UploadRead(t *testing.T) {
	t.Parallel()
	s, files, _ := newTestVault(t)
	ctx := context.Background()

	id, err := s.Upload(ctx, "alice", "a.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != 1 {
		t.Fatalf("want first id 1, got %d", id)
	}

	rec, _ := files.Get(ctx, id)
	if string(rec.Ciphertext) == "hello" {
		t.Fatalf("content stored in plaintext")
	}
	if rec.Metadata != "Owner: alice, Size: 5 bytes, Fingerprint: 210714636441" {
		t.Fatalf("bad metadata: %q", rec.Metadata)
	}

	got, err := s.Read(ctx, "alice", id)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("want hello, got %q", got)
	}

	if _, err := s.Read(ctx, "bob", id); !errors.Is(err, errs.ErrAccessDenied) {
		t.Fatalf("want ErrAccessDenied, got %v", err)
	}
	if _, err := s.Read(ctx, "alice", 42); !errors.Is(err, errs.ErrFileNotFound) {
		t.Fatalf("want ErrFileNotFound, got %v", err)
	}
	if _, err := s.Read(ctx, "", id); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}

	id2, err := s.Upload(ctx, "bob", "b.txt", nil)
	if err != nil {
		t.Fatalf("Upload empty: %v", err)
	}
	if id2 != 2 {
		t.Fatalf("want id 2, got %d", id2)
	}
	empty, err := s.Read(ctx, "bob", id2)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty file round trip: %q %v", empty, err)
	}
}

func TestVault_Upload_Rejected(t *testing.T) {
	t.Parallel()
	s, files, _ := newTestVault(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		filename string
		content  string
		want     error
	}{
		{"signature", "a.txt", "this has trojan inside", errs.ErrMaliciousContentDetected},
		{"script tag", "a.html", "<script>alert(1)</script>", errs.ErrMaliciousContentDetected},
		{"long filename", strings.Repeat("f", 101), "ok", errs.ErrOversizeInput},
		{"long content", "a.txt", strings.Repeat("a", 2001), errs.ErrOversizeInput},
		{"size before content", "a.txt", strings.Repeat("virus", 401), errs.ErrOversizeInput},
		{"unauthenticated", "a.txt", "hello", errs.ErrUnauthorized},
	}
	for _, tc := range cases {
		owner := model.Identity("alice")
		if tc.want == errs.ErrUnauthorized {
			owner = ""
		}
		if _, err := s.Upload(ctx, owner, tc.filename, []byte(tc.content)); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.want, err)
		}
	}

	// nothing was stored, so the next accepted upload still gets id 1
	id, err := s.Upload(ctx, "alice", "a.txt", []byte("Virus is fine in title case"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != 1 {
		t.Fatalf("rejected uploads consumed ids, got %d", id)
	}
	if _, err := files.Get(ctx, 2); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unexpected record: %v", err)
	}
}

func TestVault_Upload_LogsRejection(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.WarnLevel)
	fp := pkgcrypto.DJB2{}
	cipher, _ := pkgcrypto.NewXORCipher([]byte("k"))
	s := NewVaultService(memory.NewFileRepo(), memory.NewUserRepo(), threat.NewGate(threat.DefaultConfig(), fp), cipher, fp, zap.New(core))

	if _, err := s.Upload(context.Background(), "alice", "a.txt", []byte("malware")); err == nil {
		t.Fatalf("want rejection")
	}
	entries := logs.FilterMessage("upload rejected").All()
	if len(entries) != 1 {
		t.Fatalf("want one warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["owner"] != "alice" {
		t.Fatalf("bad log fields: %v", entries[0].ContextMap())
	}
}

func TestVault_Share(t *testing.T) {
	t.Parallel()
	s, files, users := newTestVault(t)
	ctx := context.Background()
	_ = users.Create(ctx, &model.User{Username: "carol"})

	id, _ := s.Upload(ctx, "alice", "a.txt", []byte("hello"))

	if err := s.Share(ctx, "alice", 99, "bob"); !errors.Is(err, errs.ErrFileNotFound) {
		t.Fatalf("want ErrFileNotFound, got %v", err)
	}
	// target is checked before ownership
	if err := s.Share(ctx, "bob", id, "nobody"); !errors.Is(err, errs.ErrTargetUserNotFound) {
		t.Fatalf("want ErrTargetUserNotFound, got %v", err)
	}
	if err := s.Share(ctx, "bob", id, "carol"); !errors.Is(err, errs.ErrNotOwner) {
		t.Fatalf("want ErrNotOwner, got %v", err)
	}
	if err := s.Share(ctx, "", id, "bob"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}

	if err := s.Share(ctx, "alice", id, "bob"); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if err := s.Share(ctx, "alice", id, "bob"); err != nil {
		t.Fatalf("repeat Share: %v", err)
	}
	rec, _ := files.Get(ctx, id)
	if len(rec.SharedWith) != 1 {
		t.Fatalf("share must deduplicate, got %v", rec.SharedWith)
	}

	got, err := s.Read(ctx, "bob", id)
	if err != nil || string(got) != "hello" {
		t.Fatalf("bob read after share: %q %v", got, err)
	}
	// a grantee cannot re-share
	if err := s.Share(ctx, "bob", id, "carol"); !errors.Is(err, errs.ErrNotOwner) {
		t.Fatalf("want ErrNotOwner for grantee, got %v", err)
	}
}

func TestVault_Metadata(t *testing.T) {
	t.Parallel()
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	id, _ := s.Upload(ctx, "alice", "a.txt", []byte("hello"))

	meta, err := s.Metadata(ctx, id)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta != BuildMetadata("alice", 5, "210714636441") {
		t.Fatalf("bad metadata %q", meta)
	}
	if _, err := s.Metadata(ctx, 7); !errors.Is(err, errs.ErrFileNotFound) {
		t.Fatalf("want ErrFileNotFound, got %v", err)
	}
}

func TestVault_RepoAndCipherErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fp := pkgcrypto.DJB2{}
	gate := threat.NewGate(threat.DefaultConfig(), fp)
	users := memory.NewUserRepo()

	boom := errors.New("boom")
	xor, _ := pkgcrypto.NewXORCipher([]byte("k"))
	s := NewVaultService(&brokenFiles{getErr: boom, createErr: boom}, users, gate, xor, fp, nil)
	if _, err := s.Upload(ctx, "alice", "a", []byte("x")); !errors.Is(err, boom) {
		t.Fatalf("want repo error, got %v", err)
	}
	// owner row gone, e.g. a foreign key violation in postgres
	gone := NewVaultService(&brokenFiles{createErr: errs.ErrNotFound}, users, gate, xor, fp, nil)
	if _, err := gone.Upload(ctx, "alice", "a", []byte("x")); !errors.Is(err, errs.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound for missing owner, got %v", err)
	}
	if _, err := s.Read(ctx, "alice", 1); !errors.Is(err, boom) || errors.Is(err, errs.ErrFileNotFound) {
		t.Fatalf("want repo error, got %v", err)
	}

	files := memory.NewFileRepo()
	s = NewVaultService(files, users, gate, failingCipher{}, fp, nil)
	if _, err := s.Upload(ctx, "alice", "a", []byte("x")); err == nil {
		t.Fatalf("want encrypt error")
	}
	id, _ := files.Create(ctx, model.NewFile{Owner: "alice", Ciphertext: []byte{1}})
	if _, err := s.Read(ctx, "alice", id); err == nil {
		t.Fatalf("want decrypt error")
	}
}
