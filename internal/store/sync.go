// ABOUTME: Synchronization capability, deliberately unsupported
// ABOUTME: The note store is local-only; sync invocations fail loudly with a typed error

package store

import (
	"context"
	"errors"
)

// ErrSyncUnsupported is returned by every Sync call. The store is
// intentionally local-only; reaching this error indicates a wiring bug,
// not a user-triggered failure.
var ErrSyncUnsupported = errors.New("store synchronization is not supported: local-only store")

// Syncer is the synchronization capability of a note backend. inkwell
// never implements it: the interface exists so callers that statically
// require the capability get an explicit, testable error instead of a
// silent no-op or a crash.
type Syncer interface {
	Sync(ctx context.Context) error
}

// UnsupportedSyncer is the Syncer for local-only stores.
type UnsupportedSyncer struct{}

// Sync always fails with ErrSyncUnsupported.
func (UnsupportedSyncer) Sync(context.Context) error {
	return ErrSyncUnsupported
}
