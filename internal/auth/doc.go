// Package auth authenticates bearer tokens against the device registry.
//
// # Model
//
// Every request carries an opaque bearer token. The token is hashed with
// SHA-256, hex-encoded, and looked up in the immutable device registry.
// A hit yields the device's label (its identity); a miss yields nothing.
// The raw token is hashed at most once per request and is never stored,
// logged, or placed in an error message — the digest is the only
// token-derived value that may appear in logs.
//
// # Identity propagation
//
// On success the dispatcher attaches the device label to the request
// context with WithIdentity; downstream handlers read it back with
// IdentityFrom. There is no ambient global identity.
package auth
