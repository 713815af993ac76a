package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/journal"
	"github.com/xraph/vault/snapshot"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/types"
)

func entry(vaultID id.VaultID, account id.AccountID, kind journal.Kind, ts time.Time) *journal.Entry {
	return &journal.Entry{
		ID:        id.NewEntryID(),
		VaultID:   vaultID,
		Account:   account,
		Kind:      kind,
		Amount:    types.Milli(500),
		Timestamp: ts,
	}
}

func TestListEntries(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	vaultID := id.NewVaultID()
	otherVault := id.NewVaultID()
	a := id.NewAccountID()
	b := id.NewAccountID()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	err := s.AppendEntries(ctx, []*journal.Entry{
		entry(vaultID, a, journal.KindDeposit, base),
		entry(vaultID, b, journal.KindDeposit, base.Add(time.Minute)),
		entry(vaultID, a, journal.KindWithdrawal, base.Add(2*time.Minute)),
		entry(otherVault, a, journal.KindDeposit, base),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	t.Run("by vault", func(t *testing.T) {
		got, err := s.ListEntries(ctx, vaultID, journal.QueryOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Errorf("got %d entries, want 3", len(got))
		}
	})

	t.Run("by account", func(t *testing.T) {
		got, err := s.ListEntries(ctx, vaultID, journal.QueryOpts{Account: a})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d entries, want 2", len(got))
		}
	})

	t.Run("by kind", func(t *testing.T) {
		got, err := s.ListEntries(ctx, vaultID, journal.QueryOpts{Kind: journal.KindWithdrawal})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Errorf("got %d entries, want 1", len(got))
		}
	})

	t.Run("by time window", func(t *testing.T) {
		got, err := s.ListEntries(ctx, vaultID, journal.QueryOpts{Start: base.Add(30 * time.Second)})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d entries, want 2", len(got))
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := s.ListEntries(ctx, vaultID, journal.QueryOpts{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Errorf("got %d entries, want 1", len(got))
		}
	})
}

func TestPurgeEntries(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	vaultID := id.NewVaultID()
	a := id.NewAccountID()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_ = s.AppendEntries(ctx, []*journal.Entry{
		entry(vaultID, a, journal.KindDeposit, base),
		entry(vaultID, a, journal.KindDeposit, base.Add(time.Hour)),
	})

	purged, err := s.PurgeEntries(ctx, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged %d, want 1", purged)
	}

	remaining, _ := s.ListEntries(ctx, vaultID, journal.QueryOpts{})
	if len(remaining) != 1 {
		t.Errorf("got %d remaining entries, want 1", len(remaining))
	}
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	vaultID := id.NewVaultID()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("missing", func(t *testing.T) {
		_, err := s.LatestSnapshot(ctx, vaultID)
		if !errors.Is(err, vault.ErrSnapshotNotFound) {
			t.Errorf("got %v, want ErrSnapshotNotFound", err)
		}
	})

	older := &snapshot.State{
		ID:      id.NewSnapshotID(),
		VaultID: vaultID,
		Held:    types.Coin(1),
		TakenAt: base,
	}
	newer := &snapshot.State{
		ID:      id.NewSnapshotID(),
		VaultID: vaultID,
		Held:    types.Coin(2),
		TakenAt: base.Add(time.Hour),
	}

	// Insertion order should not matter.
	if err := s.SaveSnapshot(ctx, newer); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnapshot(ctx, older); err != nil {
		t.Fatal(err)
	}

	got, err := s.LatestSnapshot(ctx, vaultID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID.String() != newer.ID.String() {
		t.Errorf("got snapshot %s, want %s", got.ID, newer.ID)
	}
}
