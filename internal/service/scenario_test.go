package service

import (
	"context"
	"errors"
	"testing"

	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/otp"
	"github.com/and161185/secure-vault/internal/repository/memory"
	"github.com/and161185/secure-vault/internal/threat"
)

// TestVaultWalkthrough drives both services over shared stores the way a
// single client session would.
func TestVaultWalkthrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := memory.NewUserRepo()
	files := memory.NewFileRepo()
	fp := pkgcrypto.DJB2{}
	cipher, _ := pkgcrypto.NewXORCipher([]byte("MySecretKey123"))
	auth := NewAuthService(users, pkgcrypto.LegacyHasher{}, otp.RandomGenerator{}, &captureNotifier{})
	vault := NewVaultService(files, users, threat.NewGate(threat.DefaultConfig(), fp), cipher, fp, nil)

	// registration
	if err := auth.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if err := auth.Register(ctx, "alice", "pw2"); !errors.Is(err, errs.ErrDuplicateUser) {
		t.Fatalf("want ErrDuplicateUser, got %v", err)
	}
	if err := auth.Register(ctx, "bob", "pw"); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	// password-only login
	out, err := auth.Login(ctx, "alice", "pw1")
	if err != nil || out.Identity != "alice" || !auth.Authenticated("alice") {
		t.Fatalf("login alice: %+v %v", out, err)
	}
	alice := out.Identity

	// upload and read with access control
	id, err := vault.Upload(ctx, alice, "a.txt", []byte("hello"))
	if err != nil || id != 1 {
		t.Fatalf("upload: id=%d err=%v", id, err)
	}
	if got, err := vault.Read(ctx, alice, 1); err != nil || string(got) != "hello" {
		t.Fatalf("alice read: %q %v", got, err)
	}
	if _, err := vault.Read(ctx, "bob", 1); !errors.Is(err, errs.ErrAccessDenied) {
		t.Fatalf("want ErrAccessDenied, got %v", err)
	}

	// malicious content leaves no record
	if _, err := vault.Upload(ctx, alice, "a.txt", []byte("this has trojan inside")); !errors.Is(err, errs.ErrMaliciousContentDetected) {
		t.Fatalf("want ErrMaliciousContentDetected, got %v", err)
	}
	if _, err := vault.Metadata(ctx, 2); !errors.Is(err, errs.ErrFileNotFound) {
		t.Fatalf("rejected upload was stored: %v", err)
	}

	// sharing
	if err := vault.Share(ctx, alice, 1, "bob"); err != nil {
		t.Fatalf("share: %v", err)
	}
	if got, err := vault.Read(ctx, "bob", 1); err != nil || string(got) != "hello" {
		t.Fatalf("bob read: %q %v", got, err)
	}

	// second factor with a wrong code
	if err := auth.EnableSecondFactor(ctx, alice); err != nil {
		t.Fatalf("enable 2fa: %v", err)
	}
	auth.Logout(ctx, alice)
	out, err = auth.Login(ctx, "alice", "pw1")
	if err != nil || !out.SecondFactorRequired {
		t.Fatalf("want challenge, got %+v %v", out, err)
	}
	if _, err := auth.SubmitSecondFactor(ctx, "alice", "000000"); !errors.Is(err, errs.ErrInvalidOTP) {
		t.Fatalf("want ErrInvalidOTP, got %v", err)
	}
	if auth.Authenticated("alice") {
		t.Fatalf("session must remain unauthenticated")
	}
}
