package grpcserver

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/secure-vault/internal/errs"
)

var codeTable = []struct {
	err  error
	code codes.Code
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
	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

// codeOf maps a domain error to a gRPC code; unknown errors are Internal.
func codeOf(err error) codes.Code {
	for _, e := range codeTable {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return codes.Internal
}

// toStatus converts err into a status error. Internal errors are logged and
// their text is not sent to the client.
func (s *Server) toStatus(op string, err error) error {
	code := codeOf(err)
	if code == codes.Internal {
		s.log.Error(op, zap.Error(err))
		return status.Errorf(codes.Internal, "%s: internal error", op)
	}
	return status.Error(code, err.Error())
}
