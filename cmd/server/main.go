// Command secvault-server starts the secure vault gRPC server.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/secure-vault/internal/config"
	"github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/limiter"
	"github.com/and161185/secure-vault/internal/migrate"
	"github.com/and161185/secure-vault/internal/otp"
	"github.com/and161185/secure-vault/internal/repository"
	"github.com/and161185/secure-vault/internal/repository/memory"
	"github.com/and161185/secure-vault/internal/repository/postgres"
	grpcserver "github.com/and161185/secure-vault/internal/server/grpc"
	"github.com/and161185/secure-vault/internal/service"
	"github.com/and161185/secure-vault/internal/threat"
	"github.com/and161185/secure-vault/internal/vaultpb"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, opens the selected store and serves gRPC until signalled.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		// flag package already printed usage for parse errors
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
		zap.String("cipher", cfg.Cipher.Kind),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Capabilities
	cipher, err := crypto.NewCipher(cfg.Cipher.Kind, cfg.Cipher.Key)
	if err != nil {
		logger.Fatal("cipher", zap.Error(err))
	}
	hasher, err := crypto.NewPasswordHasher(cfg.PasswordHash)
	if err != nil {
		logger.Fatal("password hasher", zap.Error(err))
	}
	fp, err := crypto.NewFingerprint(cfg.Fingerprint)
	if err != nil {
		logger.Fatal("fingerprint", zap.Error(err))
	}
	gate := threat.NewGate(cfg.Gate.Threat(), fp)

	// Repositories
	var (
		users repository.UserRepository
		files repository.FileRepository
		lim   limiter.Limiter
	)
	switch cfg.Store {
	case config.StorePostgres:
		if err := migrate.Up(ctx, cfg.DSN, logger); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer db.Close()
		users = postgres.NewUserRepo(db)
		files = postgres.NewFileRepo(db)
		if cfg.Limiter.Enabled() {
			lim = limiter.NewPG(db.Pool, cfg.Limiter.Window.Duration, cfg.Limiter.MaxFails, cfg.Limiter.BlockFor.Duration)
		}
	default:
		users = memory.NewUserRepo()
		files = memory.NewFileRepo()
		if cfg.Limiter.Enabled() {
			lim = limiter.NewMemory(cfg.Limiter.Window.Duration, cfg.Limiter.MaxFails, cfg.Limiter.BlockFor.Duration)
		}
	}

	// Services
	authOpts := []service.AuthOption{
		service.WithAuthLogger(logger),
		service.WithCodeTTL(cfg.OTP.TTL.Duration),
	}
	if lim != nil {
		authOpts = append(authOpts, service.WithLimiter(lim))
	}
	authSvc := service.NewAuthService(users, hasher, otp.RandomGenerator{}, otp.NewLogNotifier(logger), authOpts...)
	vaultSvc := service.NewVaultService(files, users, gate, cipher, fp, logger)
	tokens := grpcserver.NewTokenIssuer([]byte(cfg.JWTKey), cfg.AccessTTL.Duration)

	// gRPC server with interceptors
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			grpcserver.AuthUnary(tokens, authSvc, grpcserver.ProtectedMethods()),
		),
	}
	if cfg.TLSCert != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			logger.Fatal("failed to load TLS cert/key", zap.Error(err))
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		logger.Warn("TLS disabled, serving plaintext (dev only)")
	}
	s := grpc.NewServer(opts...)

	// App service
	vaultpb.RegisterVaultServer(s, grpcserver.New(authSvc, vaultSvc, tokens, logger))

	// Health & reflection (dev)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if cfg.Dev {
		reflection.Register(s)
	}

	// Listen
	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.TLSCert != ""))
		errCh <- s.Serve(lis)
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
