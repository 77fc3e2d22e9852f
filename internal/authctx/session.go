package authctx

import (
	"context"
)

// Identity is the resolved caller of a request.
type Identity struct {
	UserID  string
	Email   string
	Name    string
	IsAdmin bool
}

type ctxKeySessionID struct{}

type ctxKeyIdentity struct{}

// WithSessionID stores the raw session id taken from the x-session-id header.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID{}, sid)
}

// SessionIDFromContext returns the session id stored by WithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(ctxKeySessionID{}).(string)
	return sid, ok && sid != ""
}

// WithIdentity stores the authenticated caller.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, id)
}

// IdentityFromContext returns the caller stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity{}).(Identity)
	return id, ok
}
