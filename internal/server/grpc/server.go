// Package grpcserver exposes the secure vault gRPC API handlers.
package grpcserver

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/secure-vault/internal/convert"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/service"
	"github.com/and161185/secure-vault/internal/vaultpb"
)

// Server wires services into gRPC handlers.
type Server struct {
	vaultpb.UnimplementedVaultServer
	auth   service.AuthService
	vault  service.VaultService
	tokens *TokenIssuer
	log    *zap.Logger
}

var _ vaultpb.VaultServer = (*Server)(nil)

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, vault service.VaultService, tokens *TokenIssuer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, vault: vault, tokens: tokens, log: log}
}

// identity returns the caller placed in ctx by AuthUnary.
func identity(ctx context.Context) (model.Identity, error) {
	id, ok := IdentityFromCtx(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "no auth")
	}
	return id, nil
}

func (s *Server) loggedIn(op string, sess model.Session) (*structpb.Struct, error) {
	tok, err := s.tokens.Issue(sess)
	if err != nil {
		return nil, s.toStatus(op, err)
	}
	resp := convert.ToProtoTokens(tok)
	return convert.SetBool(resp, convert.FieldSecondFactorRequired, false), nil
}

// --- Auth ---

// Register creates a new user account.
func (s *Server) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, password := convert.FromProtoCredentials(req)
	if err := s.auth.Register(ctx, username, password); err != nil {
		return nil, s.toStatus("register", err)
	}
	return convert.Empty(), nil
}

// Login returns an access token, or second_factor_required=true when a one-time code was issued.
func (s *Server) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, password := convert.FromProtoCredentials(req)
	out, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return nil, s.toStatus("login", err)
	}
	if out.SecondFactorRequired {
		return convert.SetBool(convert.Empty(), convert.FieldSecondFactorRequired, true), nil
	}
	return s.loggedIn("login", out.Session)
}

// SubmitSecondFactor completes a pending login and returns an access token.
func (s *Server) SubmitSecondFactor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.auth.SubmitSecondFactor(ctx, convert.String(req, convert.FieldUsername), convert.String(req, convert.FieldCode))
	if err != nil {
		return nil, s.toStatus("submit second factor", err)
	}
	return s.loggedIn("submit second factor", sess)
}

// EnableSecondFactor turns on the one-time code for the caller.
func (s *Server) EnableSecondFactor(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.EnableSecondFactor(ctx, id); err != nil {
		return nil, s.toStatus("enable second factor", err)
	}
	return convert.Empty(), nil
}

// Logout ends every session of the caller; tokens issued before it stop working for good.
func (s *Server) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	s.auth.Logout(ctx, id)
	return convert.Empty(), nil
}

// --- Files ---

// Upload stores a file owned by the caller.
func (s *Server) Upload(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	filename, content, err := convert.FromProtoUpload(req)
	if err != nil {
		return nil, s.toStatus("upload", err)
	}
	fileID, err := s.vault.Upload(ctx, id, filename, content)
	if err != nil {
		return nil, s.toStatus("upload", err)
	}
	return convert.SetFileID(convert.Empty(), fileID), nil
}

// Read returns file content to the owner or a grantee.
func (s *Server) Read(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	fileID, err := convert.FileID(req)
	if err != nil {
		return nil, s.toStatus("read", err)
	}
	content, err := s.vault.Read(ctx, id, fileID)
	if err != nil {
		return nil, s.toStatus("read", err)
	}
	return convert.SetBytes(convert.Empty(), convert.FieldContent, content), nil
}

// Share grants read access to another user.
func (s *Server) Share(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	fileID, err := convert.FileID(req)
	if err != nil {
		return nil, s.toStatus("share", err)
	}
	if err := s.vault.Share(ctx, id, fileID, convert.String(req, convert.FieldTarget)); err != nil {
		return nil, s.toStatus("share", err)
	}
	return convert.Empty(), nil
}

// Metadata returns the metadata line of any file. Any logged-in caller may ask.
func (s *Server) Metadata(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fileID, err := convert.FileID(req)
	if err != nil {
		return nil, s.toStatus("metadata", err)
	}
	meta, err := s.vault.Metadata(ctx, fileID)
	if err != nil {
		return nil, s.toStatus("metadata", err)
	}
	return convert.SetString(convert.Empty(), convert.FieldMetadata, meta), nil
}
