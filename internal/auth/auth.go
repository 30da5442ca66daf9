// ABOUTME: Token digest computation and device authentication
// ABOUTME: Hashes bearer tokens with SHA-256 and resolves them against the registry

package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/inkwell-notes/inkwell/internal/device"
)

// Digest returns the lowercase hex SHA-256 digest of a bearer token.
// SHA-256 is the one hash family used everywhere: device files store
// SHA-256 digests and authentication computes SHA-256 digests. Tokens are
// long-lived device credentials, not passwords, so there is deliberately
// no salt: determinism is what makes the digest comparable and loggable.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Authenticate resolves a raw token to a device label. The token is hashed
// exactly once and the raw value is never retained. The digest is returned
// in both outcomes so the caller can log rejections without rehashing;
// it is the only token-derived value eligible for logging.
func Authenticate(reg *device.Registry, token string) (identity, digest string, ok bool) {
	digest = Digest(token)
	identity, ok = reg.Lookup(digest)
	return identity, digest, ok
}
