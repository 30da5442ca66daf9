// ABOUTME: Identity propagation through request contexts
// ABOUTME: Provides WithIdentity/IdentityFrom for handlers downstream of the dispatcher

package auth

import "context"

// identityKey is the key type for storing the device identity in a context.
type identityKey struct{}

// WithIdentity returns a new context carrying the authenticated device label.
func WithIdentity(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, identityKey{}, label)
}

// IdentityFrom retrieves the device label from the context. ok is false if
// the request was never authenticated (the dispatcher was bypassed).
func IdentityFrom(ctx context.Context) (label string, ok bool) {
	label, ok = ctx.Value(identityKey{}).(string)
	return label, ok
}
