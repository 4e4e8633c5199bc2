package grpcserver

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/vaultpb"
)

// LoggingUnary returns a unary server interceptor for structured logging.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		var remote string
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			remote = p.Addr.String()
		}

		// metadata only, never payloads
		log.Info("grpc",
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", remote),
		)
		return resp, err
	}
}

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}

// SessionChecker reports whether the session a token was issued for is still live.
type SessionChecker interface {
	Active(sess model.Session) bool
}

// ProtectedMethods returns the methods that require a logged-in caller.
func ProtectedMethods() map[string]bool {
	return map[string]bool{
		vaultpb.Vault_EnableSecondFactor_FullMethodName: true,
		vaultpb.Vault_Logout_FullMethodName:             true,
		vaultpb.Vault_Upload_FullMethodName:             true,
		vaultpb.Vault_Read_FullMethodName:               true,
		vaultpb.Vault_Share_FullMethodName:              true,
		vaultpb.Vault_Metadata_FullMethodName:           true,
	}
}

// AuthUnary validates "authorization: Bearer <JWT>" on protected methods,
// requires the token's session to still be live and puts the identity in context.
func AuthUnary(tokens *TokenIssuer, sessions SessionChecker, protected map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !protected[info.FullMethod] {
			return next(ctx, req)
		}
		raw, err := bearerTokenFromMD(ctx)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "no auth")
		}
		sess, err := tokens.Parse(raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		if !sessions.Active(sess) {
			return nil, status.Error(codes.Unauthenticated, "session ended, login required")
		}
		return next(WithIdentity(ctx, sess.Identity), req)
	}
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
