package store

import (
	"context"
	"time"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/journal"
	"github.com/xraph/vault/snapshot"
)

// Store is the unified storage interface for vault history and snapshots.
// The store is never the authoritative source of live vault state; it holds
// the journal (append-only history) and snapshots (resumable checkpoints).
type Store interface {
	// Journal methods
	AppendEntries(ctx context.Context, entries []*journal.Entry) error
	ListEntries(ctx context.Context, vaultID id.VaultID, opts journal.QueryOpts) ([]*journal.Entry, error)
	PurgeEntries(ctx context.Context, before time.Time) (int64, error)

	// Snapshot methods
	SaveSnapshot(ctx context.Context, st *snapshot.State) error
	LatestSnapshot(ctx context.Context, vaultID id.VaultID) (*snapshot.State, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
