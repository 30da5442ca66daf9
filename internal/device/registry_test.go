// ABOUTME: Tests for device file loading and registry lookups
// ABOUTME: Covers malformed lines, duplicate digests, and case normalization

package device

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// digestA and digestB are arbitrary well-formed SHA-256 hex strings.
const (
	digestA = "fcde2b2edba56bf408601fb721fe9b5c338d10ee429ea04fae5511b68fbf8fb9"
	digestB = "ecd71870d1963316a97e3ac3408c9835ad8cf0f3c1bc703527c30265534f75ae"
)

func writeDeviceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing device file: %v", err)
	}
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeDeviceFile(t, digestA+" laptop\n"+digestB+" phone\n")

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}

	label, ok := reg.Lookup(digestA)
	if !ok || label != "laptop" {
		t.Errorf("Lookup(digestA) = %q, %v; want \"laptop\", true", label, ok)
	}
}

func TestLoad_CommentsAndBlankLines(t *testing.T) {
	path := writeDeviceFile(t, "# authorized devices\n\n"+digestA+" laptop\n\n# end\n")

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestLoad_MalformedLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing label",
			content: digestA + "\n",
		},
		{
			name:    "too many fields",
			content: digestA + " laptop extra\n",
		},
		{
			name:    "digest too short",
			content: "abc123 laptop\n",
		},
		{
			name:    "non-hex digest",
			content: strings.Repeat("zz", 32) + " laptop\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDeviceFile(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() should have failed")
			}
			if !errors.Is(err, ErrMalformedLine) {
				t.Errorf("Load() error = %v, want ErrMalformedLine", err)
			}
		})
	}
}

func TestLoad_MalformedLineRejectsWholeFile(t *testing.T) {
	// A valid line before the bad one must not produce a partial registry.
	path := writeDeviceFile(t, digestA+" laptop\nnot-a-digest phone\n")

	reg, err := Load(path)
	if err == nil {
		t.Fatal("Load() should have failed")
	}
	if reg != nil {
		t.Error("Load() returned a registry alongside an error")
	}
}

func TestLoad_DuplicateDigestFirstWins(t *testing.T) {
	var logBuf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logBuf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := writeDeviceFile(t, digestA+" laptop\n"+digestA+" phone\n")

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	label, ok := reg.Lookup(digestA)
	if !ok {
		t.Fatal("Lookup() should find the digest")
	}
	if label != "laptop" {
		t.Errorf("Lookup() = %q, want first-seen label \"laptop\"", label)
	}

	logs := logBuf.String()
	if !strings.Contains(logs, "duplicate device digest") {
		t.Error("duplicate entry should be logged at warn level")
	}
	if !strings.Contains(logs, "component=device") {
		t.Errorf("warn line should carry component attribution, got: %s", logs)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestLookup_CaseNormalization(t *testing.T) {
	path := writeDeviceFile(t, strings.ToUpper(digestA)+" laptop\n")

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, ok := reg.Lookup(digestA); !ok {
		t.Error("Lookup() should match a digest loaded in uppercase")
	}
	if _, ok := reg.Lookup(strings.ToUpper(digestA)); !ok {
		t.Error("Lookup() should accept an uppercase query")
	}
}

func TestLookup_UnknownDigest(t *testing.T) {
	path := writeDeviceFile(t, digestA+" laptop\n")

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if label, ok := reg.Lookup(digestB); ok {
		t.Errorf("Lookup() = %q, want no match", label)
	}
}
