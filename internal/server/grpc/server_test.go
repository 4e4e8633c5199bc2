package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/secure-vault/internal/convert"
	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/otp"
	"github.com/and161185/secure-vault/internal/repository/memory"
	"github.com/and161185/secure-vault/internal/service"
	"github.com/and161185/secure-vault/internal/threat"
	"github.com/and161185/secure-vault/internal/vaultpb"
)

const bufSize = 1 << 20

type codeBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *codeBox) Notify(_ context.Context, username, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codes[username] = code
	return nil
}

func (b *codeBox) get(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[username]
}

type testEnv struct {
	cl    vaultpb.VaultClient
	codes *codeBox
}

func startBufGRPC(t *testing.T) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)

	users := memory.NewUserRepo()
	files := memory.NewFileRepo()
	fp := pkgcrypto.DJB2{}
	cipher, err := pkgcrypto.NewXORCipher([]byte("MySecretKey123"))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	box := &codeBox{codes: map[string]string{}}
	authSvc := service.NewAuthService(users, pkgcrypto.LegacyHasher{}, otp.RandomGenerator{}, box, service.WithAuthLogger(log))
	vaultSvc := service.NewVaultService(files, users, threat.NewGate(threat.DefaultConfig(), fp), cipher, fp, log)
	tokens := NewTokenIssuer([]byte("test-secret"), time.Minute)

	lis := bufconn.Listen(bufSize)
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoverUnary(log),
		LoggingUnary(log),
		AuthUnary(tokens, authSvc, ProtectedMethods()),
	))
	vaultpb.RegisterVaultServer(gs, New(authSvc, vaultSvc, tokens, log))
	go func() { _ = gs.Serve(lis) }()

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close(); gs.Stop(); _ = lis.Close() })
	return &testEnv{cl: vaultpb.NewVaultClient(cc), codes: box}
}

func bearer(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if st, ok := status.FromError(err); !ok || st.Code() != code {
		t.Fatalf("want %s, got %v", code, err)
	}
}

func (e *testEnv) login(t *testing.T, user, pw string) string {
	t.Helper()
	resp, err := e.cl.Login(context.Background(), convert.ToProtoCredentials(user, pw))
	if err != nil {
		t.Fatalf("login %s: %v", user, err)
	}
	tok, err := convert.FromProtoTokens(resp)
	if err != nil || tok.AccessToken == "" {
		t.Fatalf("login %s: bad tokens %v %v", user, resp, err)
	}
	return tok.AccessToken
}

func fileReq(id string) *structpb.Struct {
	return convert.SetString(convert.Empty(), convert.FieldFileID, id)
}

func TestServer_E2E_BasicFlow(t *testing.T) {
	t.Parallel()
	env := startBufGRPC(t)
	ctx := context.Background()

	if _, err := env.cl.Register(ctx, convert.ToProtoCredentials("alice", "pw1")); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := env.cl.Register(ctx, convert.ToProtoCredentials("alice", "pw2"))
	wantCode(t, err, codes.AlreadyExists)
	_, err = env.cl.Register(ctx, convert.ToProtoCredentials("", ""))
	wantCode(t, err, codes.InvalidArgument)
	if _, err := env.cl.Register(ctx, convert.ToProtoCredentials("bob", "pw")); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	_, err = env.cl.Login(ctx, convert.ToProtoCredentials("alice", "nope"))
	wantCode(t, err, codes.Unauthenticated)
	_, err = env.cl.Login(ctx, convert.ToProtoCredentials("carol", "x"))
	wantCode(t, err, codes.NotFound)

	alice := env.login(t, "alice", "pw1")
	bob := env.login(t, "bob", "pw")

	_, err = env.cl.Upload(ctx, convert.ToProtoUpload("a.txt", []byte("hello")))
	wantCode(t, err, codes.Unauthenticated)

	up, err := env.cl.Upload(bearer(alice), convert.ToProtoUpload("a.txt", []byte("hello")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if id := convert.String(up, convert.FieldFileID); id != "1" {
		t.Fatalf("want file id 1, got %q", id)
	}

	rd, err := env.cl.Read(bearer(alice), fileReq("1"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if b, _ := convert.Bytes(rd, convert.FieldContent); string(b) != "hello" {
		t.Fatalf("want hello, got %q", b)
	}
	_, err = env.cl.Read(bearer(bob), fileReq("1"))
	wantCode(t, err, codes.PermissionDenied)

	_, err = env.cl.Upload(bearer(alice), convert.ToProtoUpload("a.txt", []byte("this has trojan inside")))
	wantCode(t, err, codes.InvalidArgument)
	_, err = env.cl.Metadata(bearer(alice), fileReq("2"))
	wantCode(t, err, codes.NotFound)

	_, err = env.cl.Share(bearer(bob), convert.SetString(fileReq("1"), convert.FieldTarget, "bob"))
	wantCode(t, err, codes.PermissionDenied)
	_, err = env.cl.Share(bearer(alice), convert.SetString(fileReq("1"), convert.FieldTarget, "ghost"))
	wantCode(t, err, codes.NotFound)
	if _, err := env.cl.Share(bearer(alice), convert.SetString(fileReq("1"), convert.FieldTarget, "bob")); err != nil {
		t.Fatalf("share: %v", err)
	}
	rd, err = env.cl.Read(bearer(bob), fileReq("1"))
	if err != nil {
		t.Fatalf("bob read: %v", err)
	}
	if b, _ := convert.Bytes(rd, convert.FieldContent); string(b) != "hello" {
		t.Fatalf("bob want hello, got %q", b)
	}

	md, err := env.cl.Metadata(bearer(bob), fileReq("1"))
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if got := convert.String(md, convert.FieldMetadata); got != "Owner: alice, Size: 5 bytes, Fingerprint: 210714636441" {
		t.Fatalf("metadata %q", got)
	}

	_, err = env.cl.Read(bearer(alice), fileReq("abc"))
	wantCode(t, err, codes.InvalidArgument)
}

func TestServer_E2E_SecondFactor(t *testing.T) {
	t.Parallel()
	env := startBufGRPC(t)
	ctx := context.Background()

	if _, err := env.cl.Register(ctx, convert.ToProtoCredentials("alice", "pw1")); err != nil {
		t.Fatalf("register: %v", err)
	}
	tok := env.login(t, "alice", "pw1")
	if _, err := env.cl.EnableSecondFactor(bearer(tok), convert.Empty()); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if _, err := env.cl.Logout(bearer(tok), convert.Empty()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// the old token no longer opens the vault
	_, err := env.cl.Upload(bearer(tok), convert.ToProtoUpload("a.txt", []byte("x")))
	wantCode(t, err, codes.Unauthenticated)

	resp, err := env.cl.Login(ctx, convert.ToProtoCredentials("alice", "pw1"))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !convert.Bool(resp, convert.FieldSecondFactorRequired) || convert.String(resp, convert.FieldAccessToken) != "" {
		t.Fatalf("want challenge without token, got %v", resp)
	}

	otpReq := func(code string) *structpb.Struct {
		return convert.SetString(convert.SetString(convert.Empty(), convert.FieldUsername, "alice"), convert.FieldCode, code)
	}
	_, err = env.cl.SubmitSecondFactor(ctx, otpReq("000000"))
	wantCode(t, err, codes.Unauthenticated)

	code := env.codes.get("alice")
	if len(code) != otp.Digits {
		t.Fatalf("no code delivered: %q", code)
	}
	resp, err = env.cl.SubmitSecondFactor(ctx, otpReq(code))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	tk, _ := convert.FromProtoTokens(resp)
	if _, err := env.cl.Upload(bearer(tk.AccessToken), convert.ToProtoUpload("a.txt", []byte("x"))); err != nil {
		t.Fatalf("upload after 2fa: %v", err)
	}
}

func TestServer_E2E_LogoutEndsTokensForGood(t *testing.T) {
	t.Parallel()
	env := startBufGRPC(t)
	ctx := context.Background()

	if _, err := env.cl.Register(ctx, convert.ToProtoCredentials("alice", "pw1")); err != nil {
		t.Fatalf("register: %v", err)
	}
	first := env.login(t, "alice", "pw1")
	second := env.login(t, "alice", "pw1")
	if _, err := env.cl.Logout(bearer(first), convert.Empty()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err := env.cl.Upload(bearer(second), convert.ToProtoUpload("a.txt", []byte("x")))
	wantCode(t, err, codes.Unauthenticated)

	fresh := env.login(t, "alice", "pw1")
	for name, tok := range map[string]string{"first": first, "second": second} {
		_, err := env.cl.Upload(bearer(tok), convert.ToProtoUpload("a.txt", []byte("x")))
		if st, ok := status.FromError(err); !ok || st.Code() != codes.Unauthenticated {
			t.Fatalf("%s token must stay dead after a new login, got %v", name, err)
		}
	}
	up, err := env.cl.Upload(bearer(fresh), convert.ToProtoUpload("a.txt", []byte("x")))
	if err != nil {
		t.Fatalf("upload with fresh token: %v", err)
	}
	if id := convert.String(up, convert.FieldFileID); id != "1" {
		t.Fatalf("want file id 1, got %q", id)
	}
}

func TestServer_E2E_ChallengeKeepsLiveSession(t *testing.T) {
	t.Parallel()
	env := startBufGRPC(t)
	ctx := context.Background()

	if _, err := env.cl.Register(ctx, convert.ToProtoCredentials("alice", "pw1")); err != nil {
		t.Fatalf("register: %v", err)
	}
	tok := env.login(t, "alice", "pw1")
	if _, err := env.cl.EnableSecondFactor(bearer(tok), convert.Empty()); err != nil {
		t.Fatalf("enable: %v", err)
	}

	resp, err := env.cl.Login(ctx, convert.ToProtoCredentials("alice", "pw1"))
	if err != nil || !convert.Bool(resp, convert.FieldSecondFactorRequired) {
		t.Fatalf("want challenge, got %v %v", resp, err)
	}
	if _, err := env.cl.Upload(bearer(tok), convert.ToProtoUpload("a.txt", []byte("x"))); err != nil {
		t.Fatalf("pending challenge dropped a live session: %v", err)
	}
}

type stubVault struct{ err error }

func (s stubVault) Upload(context.Context, model.Identity, string, []byte) (int64, error) {
	return 0, s.err
}
func (s stubVault) Read(context.Context, model.Identity, int64) ([]byte, error) { return nil, s.err }
func (s stubVault) Share(context.Context, model.Identity, int64, string) error { return s.err }
func (s stubVault) Metadata(context.Context, int64) (string, error) { return "", s.err }

func TestServer_HandlersRequireIdentity(t *testing.T) {
	t.Parallel()

	srv := New(nil, stubVault{}, NewTokenIssuer([]byte("k"), time.Minute), zaptest.NewLogger(t))
	ctx := context.Background()
	_, err := srv.Upload(ctx, convert.ToProtoUpload("a", nil))
	wantCode(t, err, codes.Unauthenticated)
	_, err = srv.Read(ctx, fileReq("1"))
	wantCode(t, err, codes.Unauthenticated)
	_, err = srv.Share(ctx, fileReq("1"))
	wantCode(t, err, codes.Unauthenticated)
	_, err = srv.Logout(ctx, convert.Empty())
	wantCode(t, err, codes.Unauthenticated)
	_, err = srv.EnableSecondFactor(ctx, convert.Empty())
	wantCode(t, err, codes.Unauthenticated)
}

func TestServer_InternalErrorsAreHidden(t *testing.T) {
	t.Parallel()

	srv := New(nil, stubVault{err: errors.New("pq: connection refused")}, nil, zaptest.NewLogger(t))
	_, err := srv.Metadata(context.Background(), fileReq("1"))
	wantCode(t, err, codes.Internal)
	if st, _ := status.FromError(err); st.Message() != "metadata: internal error" {
		t.Fatalf("leaked message %q", st.Message())
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want codes.Code
	}{
		{errs.ErrDuplicateUser, codes.AlreadyExists},
		{errs.ErrUserNotFound, codes.NotFound},
		{errs.ErrFileNotFound, codes.NotFound},
		{errs.ErrTargetUserNotFound, codes.NotFound},
		{errs.ErrInvalidCredentials, codes.Unauthenticated},
		{errs.ErrInvalidOTP, codes.Unauthenticated},
		{errs.ErrUnauthorized, codes.Unauthenticated},
		{errs.ErrAccessDenied, codes.PermissionDenied},
		{errs.ErrNotOwner, codes.PermissionDenied},
		{errs.ErrOversizeInput, codes.InvalidArgument},
		{errs.ErrMaliciousContentDetected, codes.InvalidArgument},
		{errs.ErrInvalidIDFormat, codes.InvalidArgument},
		{errs.ErrInvalidInput, codes.InvalidArgument},
		{errs.ErrRateLimited, codes.ResourceExhausted},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{fmt.Errorf("wrapped: %w", errs.ErrNotOwner), codes.PermissionDenied},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		if got := codeOf(tc.err); got != tc.want {
			t.Fatalf("%v: got %s want %s", tc.err, got, tc.want)
		}
	}
}
