// ABOUTME: Static file server for the HTML/JS note client
// ABOUTME: Serves a configured directory with explicit MIME types and cache headers

package assets

import (
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
)

// hashPattern detects content hashes in filenames (e.g. "app.a1b2c3d4.js").
// Bundlers use base64url hashes, so we accept [a-zA-Z0-9_-] with an 8-char
// minimum. Hashed files are immutable and can be cached forever.
var hashPattern = regexp.MustCompile(`\.[a-zA-Z0-9_-]{8,}\.`)

// containsHash reports whether the given path contains a content hash.
func containsHash(p string) bool {
	return hashPattern.MatchString(p)
}

// mimeFromExt returns the MIME type for a file extension. Falls back to
// the Go standard library's MIME type database, then to
// "application/octet-stream" if unknown.
func mimeFromExt(ext string) string {
	switch ext {
	case ".js", ".mjs":
		return "application/javascript"
	case ".css":
		return "text/css; charset=utf-8"
	case ".html":
		return "text/html; charset=utf-8"
	case ".woff2":
		return "font/woff2"
	case ".svg":
		return "image/svg+xml"
	case ".map":
		return "application/json"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}

// FileServer returns an http.Handler serving the client assets from dir.
// Hashed assets get immutable cache headers; everything else gets
// no-cache so a redeployed client is picked up immediately.
func FileServer(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ext := strings.ToLower(path.Ext(r.URL.Path))
		if ext != "" {
			w.Header().Set("Content-Type", mimeFromExt(ext))
		}

		if containsHash(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}

		fileServer.ServeHTTP(w, r)
	})
}
