// Package store persists notes in a content-addressed, versioned SQLite
// database.
//
// # Content addressing
//
// Note content is stored as blobs keyed by their BLAKE3 hex digest.
// Saving identical content twice stores one blob; a note's history is a
// sequence of (seq, digest) rows pointing into the blob table, so
// reverting a note to earlier content costs one small row.
//
// # Versioning
//
// Every SaveNote appends a history entry. History is append-only while a
// note exists; deleting a note drops its history and garbage-collects
// blobs no other version references.
//
// # Synchronization
//
// There is none, on purpose. The store is local-only; the Syncer
// capability exists solely so anything statically requiring it receives
// ErrSyncUnsupported instead of silently doing nothing.
package store
