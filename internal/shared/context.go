package shared

import (
	"context"
	"time"
)

// Identity describes the caller resolved from a validated bearer token.
// It is written once by the auth middleware and read by handlers, so every
// authorization decision receives explicit identity instead of consulting
// ambient session state.
type Identity struct {
	UserID       int64
	Email        string
	IsSuperAdmin bool
	TokenID      string
	ExpiresAt    time.Time
}

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, ident)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	ident, _ := ctx.Value(identityContextKey{}).(*Identity)
	return ident
}
