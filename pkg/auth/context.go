package auth

import "context"

// stateKey is a private type for the per-kind identity context keys.
type stateKey struct{ kind string }

// WithIdentity records an authenticated identity for the given principal
// kind. State is per-request and per-kind: gates for different kinds stack
// on one request without interfering, and a gate never overwrites state an
// earlier gate already set (see Middleware).
func WithIdentity(ctx context.Context, kind string, id *Identity) context.Context {
	return context.WithValue(ctx, stateKey{kind: kind}, id)
}

// IdentityFromContext retrieves the authenticated identity for the given
// principal kind. Returns nil if no identity of that kind is set.
func IdentityFromContext(ctx context.Context, kind string) *Identity {
	if v, ok := ctx.Value(stateKey{kind: kind}).(*Identity); ok {
		return v
	}
	return nil
}
