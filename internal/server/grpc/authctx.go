package grpcserver

import (
	"context"

	"github.com/and161185/secure-vault/internal/model"
)

type ctxKey string

const identityKey ctxKey = "secvault.identity"

// WithIdentity stores the authenticated identity in context.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromCtx fetches the identity from context.
func IdentityFromCtx(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
