package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/journal"
	"github.com/xraph/vault/snapshot"
	"github.com/xraph/vault/types"
)

// ==================== Journal models ====================

type journalEntryModel struct {
	grove.BaseModel `grove:"table:vault_journal"`

	ID        string            `grove:"id,pk"      bson:"_id"`
	VaultID   string            `grove:"vault_id"   bson:"vault_id"`
	Account   string            `grove:"account"    bson:"account"`
	Kind      string            `grove:"kind"       bson:"kind"`
	Amount    int64             `grove:"amount"     bson:"amount"`
	HeldAfter int64             `grove:"held_after" bson:"held_after"`
	Timestamp time.Time         `grove:"timestamp"  bson:"timestamp"`
	Metadata  map[string]string `grove:"metadata"   bson:"metadata,omitempty"`
}

func toJournalEntryModel(e *journal.Entry) *journalEntryModel {
	return &journalEntryModel{
		ID:        e.ID.String(),
		VaultID:   e.VaultID.String(),
		Account:   e.Account.String(),
		Kind:      string(e.Kind),
		Amount:    e.Amount.Amount,
		HeldAfter: e.HeldAfter.Amount,
		Timestamp: e.Timestamp,
		Metadata:  e.Metadata,
	}
}

func fromJournalEntryModel(m *journalEntryModel) (*journal.Entry, error) {
	entryID, err := id.ParseEntryID(m.ID)
	if err != nil {
		return nil, err
	}
	vaultID, err := id.ParseVaultID(m.VaultID)
	if err != nil {
		return nil, err
	}

	account := id.Nil
	if m.Account != "" {
		account, err = id.ParseAccountID(m.Account)
		if err != nil {
			return nil, err
		}
	}

	return &journal.Entry{
		ID:        entryID,
		VaultID:   vaultID,
		Account:   account,
		Kind:      journal.Kind(m.Kind),
		Amount:    types.Nano(m.Amount),
		HeldAfter: types.Nano(m.HeldAfter),
		Timestamp: m.Timestamp,
		Metadata:  m.Metadata,
	}, nil
}

// ==================== Snapshot models ====================

type snapshotModel struct {
	grove.BaseModel `grove:"table:vault_snapshots"`

	ID        string           `grove:"id,pk"      bson:"_id"`
	VaultID   string           `grove:"vault_id"   bson:"vault_id"`
	Held      int64            `grove:"held"       bson:"held"`
	Baseline  int64            `grove:"baseline"   bson:"baseline"`
	Accounted map[string]int64 `grove:"accounted"  bson:"accounted,omitempty"`
	Dosed     bool             `grove:"dosed"      bson:"dosed"`
	Destroyed bool             `grove:"destroyed"  bson:"destroyed"`
	TakenAt   time.Time        `grove:"taken_at"   bson:"taken_at"`
	CreatedAt time.Time        `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time        `grove:"updated_at" bson:"updated_at"`
}

func toSnapshotModel(st *snapshot.State) *snapshotModel {
	accounted := make(map[string]int64, len(st.Accounted))
	for account, amount := range st.Accounted {
		accounted[account] = amount.Amount
	}

	return &snapshotModel{
		ID:        st.ID.String(),
		VaultID:   st.VaultID.String(),
		Held:      st.Held.Amount,
		Baseline:  st.Baseline.Amount,
		Accounted: accounted,
		Dosed:     st.Dosed,
		Destroyed: st.Destroyed,
		TakenAt:   st.TakenAt,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

func fromSnapshotModel(m *snapshotModel) (*snapshot.State, error) {
	snapshotID, err := id.ParseSnapshotID(m.ID)
	if err != nil {
		return nil, err
	}
	vaultID, err := id.ParseVaultID(m.VaultID)
	if err != nil {
		return nil, err
	}

	accounted := make(map[string]types.Funds, len(m.Accounted))
	for account, amount := range m.Accounted {
		accounted[account] = types.Nano(amount)
	}

	return &snapshot.State{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        snapshotID,
		VaultID:   vaultID,
		Held:      types.Nano(m.Held),
		Baseline:  types.Nano(m.Baseline),
		Accounted: accounted,
		Dosed:     m.Dosed,
		Destroyed: m.Destroyed,
		TakenAt:   m.TakenAt,
	}, nil
}
