// ABOUTME: Store interface and data types for inkwell note persistence
// ABOUTME: Defines Note, Version structs and the content-addressed Store interface

package store

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/zeebo/blake3"
)

// ErrNotFound is returned when a requested note or version does not exist.
var ErrNotFound = errors.New("not found")

// Note represents the current state of one note.
type Note struct {
	ID        string
	Title     string
	Digest    string // BLAKE3 hex digest of the current content
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Version represents one entry in a note's append-only history.
type Version struct {
	NoteID    string
	Seq       int // 1-based, monotonically increasing per note
	Digest    string
	CreatedAt time.Time
}

// Store is the content-addressed, versioned note backend. Every save
// appends a history entry; content blobs are stored once per distinct
// digest and shared between versions and notes.
type Store interface {
	// SaveNote writes content as the newest version of the note. An empty
	// id creates a new note and returns its generated ID.
	SaveNote(ctx context.Context, id, title string, content []byte) (*Note, error)

	// GetNote returns the note metadata and its current content.
	GetNote(ctx context.Context, id string) (*Note, []byte, error)

	// ListNotes returns all notes, most recently updated first.
	ListNotes(ctx context.Context) ([]*Note, error)

	// DeleteNote removes a note and its history. Shared content blobs
	// referenced by other notes survive.
	DeleteNote(ctx context.Context, id string) error

	// History returns a note's versions, oldest first.
	History(ctx context.Context, id string) ([]*Version, error)

	// GetVersion returns the content of one historical version by digest.
	GetVersion(ctx context.Context, id, digest string) ([]byte, error)

	Close() error
}

// ContentDigest returns the lowercase hex BLAKE3 digest that addresses a
// content blob. Identical content always yields the identical digest, so
// saving the same bytes twice stores one blob.
func ContentDigest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
