// ABOUTME: Device registry mapping token digests to device labels
// ABOUTME: Loaded once at startup from a plain-text device file, immutable afterward

package device

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// DigestLen is the length of a hex-encoded SHA-256 digest.
const DigestLen = 64

// ErrMalformedLine is returned when a device file line cannot be parsed.
// The entire load is rejected: a credential file with a bad line is a
// configuration defect, not something to serve traffic around.
var ErrMalformedLine = errors.New("malformed device line")

// Device is one authorized client credential record.
type Device struct {
	Digest string // lowercase hex SHA-256 of the device token
	Label  string // human-readable device name, e.g. "laptop"
}

// Registry holds the digest → label mapping for all authorized devices.
// It is built once by Load and never mutated afterward, so any number of
// request goroutines may call Lookup concurrently without locking.
type Registry struct {
	devices map[string]string
}

// Load reads a device file and builds a Registry. The format is one device
// per line: a hex digest and a label separated by whitespace. Blank lines
// and lines starting with '#' are skipped. Any malformed line (wrong field
// count, non-hex digest, wrong digest length) fails the whole load.
//
// If the same digest appears on more than one line, the first occurrence
// wins; later ones are logged at warn level and skipped.
func Load(path string) (*Registry, error) {
	logger := slog.Default().With("component", "device")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening device file: %w", err)
	}
	defer f.Close()

	devices := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: %s:%d: expected \"<digest> <label>\", got %d fields", ErrMalformedLine, path, lineNo, len(fields))
		}

		digest := normalize(fields[0])
		if err := validateDigest(digest); err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", ErrMalformedLine, path, lineNo, err)
		}

		if prev, ok := devices[digest]; ok {
			logger.Warn("duplicate device digest, keeping first entry",
				"digest", digest, "kept", prev, "skipped", fields[1], "line", lineNo)
			continue
		}
		devices[digest] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading device file: %w", err)
	}

	return &Registry{devices: devices}, nil
}

// Lookup returns the label registered for the given digest. Digests are
// compared as lowercase hex, so callers may pass either case.
func (r *Registry) Lookup(digest string) (string, bool) {
	label, ok := r.devices[normalize(digest)]
	return label, ok
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

func normalize(digest string) string {
	return strings.ToLower(digest)
}

// validateDigest checks that s is a 64-character lowercase hex string.
func validateDigest(s string) error {
	if len(s) != DigestLen {
		return fmt.Errorf("digest must be %d hex characters, got %d", DigestLen, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("digest contains non-hex character %q", c)
		}
	}
	return nil
}
