// ABOUTME: Tests for the static asset file server
// ABOUTME: Covers MIME resolution, cache headers, and hash detection

package assets

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestContainsHash(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/app.CU4W1PlC.js", true},
		{"/styles.a1b2c3d4e5.css", true},
		{"/index.html", false},
		{"/app.js", false},
		{"/favicon.svg", false},
	}

	for _, tt := range tests {
		if got := containsHash(tt.path); got != tt.want {
			t.Errorf("containsHash(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMimeFromExt(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".js", "application/javascript"},
		{".css", "text/css; charset=utf-8"},
		{".html", "text/html; charset=utf-8"},
		{".woff2", "font/woff2"},
		{".unknownext", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := mimeFromExt(tt.ext); got != tt.want {
			t.Errorf("mimeFromExt(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestFileServer(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0644); err != nil {
		t.Fatalf("writing asset: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.a1b2c3d4.js"), []byte("console.log(1)"), 0644); err != nil {
		t.Fatalf("writing asset: %v", err)
	}

	handler := FileServer(dir)

	// The index is served at "/": http.FileServer canonicalizes
	// "/index.html" itself with a redirect.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("unhashed Cache-Control = %q, want no-cache", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	if rec.Code != http.StatusMovedPermanently {
		t.Errorf("GET /index.html status = %d, want canonicalizing redirect", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.a1b2c3d4.js", nil))
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=31536000, immutable" {
		t.Errorf("hashed Cache-Control = %q", got)
	}
}
