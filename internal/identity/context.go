package identity

import "context"

// contextKey is an unexported type for keys stored in context to avoid collisions.
type contextKey string

// identityKey is the context key under which the resolved identity is stored.
const identityKey contextKey = "identity"

// NewContext returns a child context carrying the resolved identity.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity stored by NewContext. The second return
// value reports whether an identity was present.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}
