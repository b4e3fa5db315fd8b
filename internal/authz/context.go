package authz

import "context"

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in context. A nil
// identity marks the request as anonymous.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the resolved identity from context. It
// returns nil for anonymous requests and for contexts that never passed
// through identity resolution.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*Identity)
	return identity
}
