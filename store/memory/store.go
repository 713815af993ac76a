package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/vault"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/journal"
	"github.com/xraph/vault/snapshot"
)

type Store struct {
	mu sync.RWMutex

	// Journal storage, in append order
	entries []journal.Entry

	// Snapshot storage, newest last per vault
	snapshots map[string][]*snapshot.State
}

func New() *Store {
	return &Store{
		entries:   make([]journal.Entry, 0),
		snapshots: make(map[string][]*snapshot.State),
	}
}

// Journal Store implementation
func (s *Store) AppendEntries(_ context.Context, entries []*journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.entries = append(s.entries, *e)
	}
	return nil
}

func (s *Store) ListEntries(_ context.Context, vaultID id.VaultID, opts journal.QueryOpts) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*journal.Entry, 0)
	for i := range s.entries {
		e := &s.entries[i]
		if e.VaultID.String() != vaultID.String() {
			continue
		}
		if !opts.Account.IsNil() && e.Account.String() != opts.Account.String() {
			continue
		}
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		// Half-open window [Start, End), matching the SQL backends.
		if (!opts.Start.IsZero() && e.Timestamp.Before(opts.Start)) ||
			(!opts.End.IsZero() && !e.Timestamp.Before(opts.End)) {
			continue
		}
		result = append(result, e)
	}

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) PurgeEntries(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	kept := make([]journal.Entry, 0)
	for _, e := range s.entries {
		if e.Timestamp.Before(before) {
			count++
		} else {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return count, nil
}

// Snapshot Store implementation
func (s *Store) SaveSnapshot(_ context.Context, st *snapshot.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := st.VaultID.String()
	s.snapshots[key] = append(s.snapshots[key], st)
	sort.SliceStable(s.snapshots[key], func(i, j int) bool {
		return s.snapshots[key][i].TakenAt.Before(s.snapshots[key][j].TakenAt)
	})
	return nil
}

func (s *Store) LatestSnapshot(_ context.Context, vaultID id.VaultID) (*snapshot.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.snapshots[vaultID.String()]
	if len(snaps) == 0 {
		return nil, vault.ErrSnapshotNotFound
	}
	return snaps[len(snaps)-1], nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
