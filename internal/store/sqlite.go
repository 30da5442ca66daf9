// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Content-addressed blobs plus append-only per-note version history

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path. The schema
// is automatically created if it doesn't exist. Parent directories are
// created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL for concurrent readers during writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS blobs (
			digest TEXT PRIMARY KEY,
			content BLOB NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			digest TEXT NOT NULL REFERENCES blobs(digest),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS note_versions (
			note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			digest TEXT NOT NULL REFERENCES blobs(digest),
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (note_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveNote writes content as the newest version of the note. An empty id
// creates a new note.
func (s *SQLiteStore) SaveNote(ctx context.Context, id, title string, content []byte) (*Note, error) {
	digest := ContentDigest(content)
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Content is addressed by digest: identical bytes are stored once.
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO blobs (digest, content) VALUES (?, ?) ON CONFLICT(digest) DO NOTHING",
		digest, content); err != nil {
		return nil, fmt.Errorf("storing blob: %w", err)
	}

	note := &Note{Title: title, Digest: digest, UpdatedAt: now}

	if id == "" {
		note.ID = uuid.New().String()
		note.CreatedAt = now
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO notes (id, title, digest, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			note.ID, title, digest, now, now); err != nil {
			return nil, fmt.Errorf("creating note: %w", err)
		}
	} else {
		note.ID = id
		err := tx.QueryRowContext(ctx,
			"SELECT created_at FROM notes WHERE id = ?", id).Scan(&note.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("looking up note: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE notes SET title = ?, digest = ?, updated_at = ? WHERE id = ?",
			title, digest, now, id); err != nil {
			return nil, fmt.Errorf("updating note: %w", err)
		}
	}

	var seq int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM note_versions WHERE note_id = ?",
		note.ID).Scan(&seq); err != nil {
		return nil, fmt.Errorf("computing version sequence: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO note_versions (note_id, seq, digest, created_at) VALUES (?, ?, ?, ?)",
		note.ID, seq, digest, now); err != nil {
		return nil, fmt.Errorf("appending version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("note saved", "note_id", note.ID, "digest", digest, "seq", seq)
	return note, nil
}

// GetNote returns the note metadata and its current content.
func (s *SQLiteStore) GetNote(ctx context.Context, id string) (*Note, []byte, error) {
	note := &Note{ID: id}
	var content []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT n.title, n.digest, n.created_at, n.updated_at, b.content
		FROM notes n JOIN blobs b ON n.digest = b.digest
		WHERE n.id = ?`, id).
		Scan(&note.Title, &note.Digest, &note.CreatedAt, &note.UpdatedAt, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("querying note: %w", err)
	}
	return note, content, nil
}

// ListNotes returns all notes, most recently updated first.
func (s *SQLiteStore) ListNotes(ctx context.Context) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, digest, created_at, updated_at
		FROM notes ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n := &Note{}
		if err := rows.Scan(&n.ID, &n.Title, &n.Digest, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// DeleteNote removes a note, its history, and any content blobs no longer
// referenced by any version of any note.
func (s *SQLiteStore) DeleteNote(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	// Versions go via ON DELETE CASCADE; orphaned blobs are collected here.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM blobs WHERE digest NOT IN (SELECT digest FROM note_versions)`); err != nil {
		return fmt.Errorf("collecting orphaned blobs: %w", err)
	}

	return tx.Commit()
}

// History returns a note's versions, oldest first.
func (s *SQLiteStore) History(ctx context.Context, id string) ([]*Version, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM notes WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up note: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT note_id, seq, digest, created_at
		FROM note_versions WHERE note_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	var versions []*Version
	for rows.Next() {
		v := &Version{}
		if err := rows.Scan(&v.NoteID, &v.Seq, &v.Digest, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// GetVersion returns the content of one historical version by digest.
func (s *SQLiteStore) GetVersion(ctx context.Context, id, digest string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT b.content
		FROM note_versions v JOIN blobs b ON v.digest = b.digest
		WHERE v.note_id = ? AND v.digest = ?
		LIMIT 1`, id, digest).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying version content: %w", err)
	}
	return content, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
