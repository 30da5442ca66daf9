// ABOUTME: Per-request authentication dispatcher
// ABOUTME: Classifies every request as missing-token, invalid-token, or authenticated

package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/inkwell-notes/inkwell/internal/auth"
	"github.com/inkwell-notes/inkwell/internal/device"
)

// Rejection bodies are part of the external contract and reproduced
// verbatim; clients match on them.
const (
	missingTokenBody = "Missing access token"
	invalidTokenBody = "Invalid access token"
)

// Dispatch wraps the application handler with token authentication.
// Every request is classified exactly once:
//
//   - no token parameter → 400, nothing is hashed, the registry is not consulted
//   - token with no matching device → 401, a warning carrying only the digest
//   - token matching a device → the identity joins the request context and
//     the application handler runs unchanged
//
// The raw token never reaches a log line or an error message.
func Dispatch(registry *device.Registry, next http.Handler, logger *slog.Logger) http.Handler {
	logger = logger.With("component", "dispatcher")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !r.URL.Query().Has("token") {
			reject(w, http.StatusBadRequest, missingTokenBody)
			return
		}
		token := r.URL.Query().Get("token")

		identity, digest, ok := auth.Authenticate(registry, token)
		if !ok {
			logger.Warn("rejected unknown token", "digest", digest, "remote", r.RemoteAddr)
			reject(w, http.StatusUnauthorized, invalidTokenBody)
			return
		}

		logger.Info("authenticated request", "device", identity, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

func reject(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}
