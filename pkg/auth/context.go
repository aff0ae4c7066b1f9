package auth

import "context"

type identityKey struct{}

// SetIdentity returns a copy of ctx carrying id. The gate calls it once a
// chain has admitted the request.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity admitted by the gate, or nil
// when the request never passed through one.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// SubjectFromContext returns the admitted subject, or "" without an
// identity.
func SubjectFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Subject
	}
	return ""
}
