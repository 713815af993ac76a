package sqlite

import (
	"encoding/json"
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

	ID        string          `grove:"id,pk"`
	VaultID   string          `grove:"vault_id"`
	Account   string          `grove:"account"`
	Kind      string          `grove:"kind"`
	Amount    int64           `grove:"amount"`
	HeldAfter int64           `grove:"held_after"`
	Timestamp time.Time       `grove:"timestamp"`
	Metadata  json.RawMessage `grove:"metadata,type:jsonb"`
}

func toJournalEntryModel(e *journal.Entry) *journalEntryModel {
	metadata, _ := json.Marshal(e.Metadata) //nolint:errcheck // best-effort

	return &journalEntryModel{
		ID:        e.ID.String(),
		VaultID:   e.VaultID.String(),
		Account:   e.Account.String(),
		Kind:      string(e.Kind),
		Amount:    e.Amount.Amount,
		HeldAfter: e.HeldAfter.Amount,
		Timestamp: e.Timestamp,
		Metadata:  metadata,
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

	var metadata map[string]string
	if len(m.Metadata) > 0 && string(m.Metadata) != "null" {
		_ = json.Unmarshal(m.Metadata, &metadata) //nolint:errcheck // best-effort
	}

	return &journal.Entry{
		ID:        entryID,
		VaultID:   vaultID,
		Account:   account,
		Kind:      journal.Kind(m.Kind),
		Amount:    types.Nano(m.Amount),
		HeldAfter: types.Nano(m.HeldAfter),
		Timestamp: m.Timestamp,
		Metadata:  metadata,
	}, nil
}

// ==================== Snapshot models ====================

type snapshotModel struct {
	grove.BaseModel `grove:"table:vault_snapshots"`

	ID        string          `grove:"id,pk"`
	VaultID   string          `grove:"vault_id"`
	Held      int64           `grove:"held"`
	Baseline  int64           `grove:"baseline"`
	Accounted json.RawMessage `grove:"accounted,type:jsonb"`
	Dosed     bool            `grove:"dosed"`
	Destroyed bool            `grove:"destroyed"`
	TakenAt   time.Time       `grove:"taken_at"`
	CreatedAt time.Time       `grove:"created_at"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

func toSnapshotModel(st *snapshot.State) *snapshotModel {
	accounted := make(map[string]int64, len(st.Accounted))
	for account, amount := range st.Accounted {
		accounted[account] = amount.Amount
	}
	raw, _ := json.Marshal(accounted) //nolint:errcheck // best-effort

	return &snapshotModel{
		ID:        st.ID.String(),
		VaultID:   st.VaultID.String(),
		Held:      st.Held.Amount,
		Baseline:  st.Baseline.Amount,
		Accounted: raw,
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

	var raw map[string]int64
	if len(m.Accounted) > 0 {
		_ = json.Unmarshal(m.Accounted, &raw) //nolint:errcheck // best-effort
	}
	accounted := make(map[string]types.Funds, len(raw))
	for account, amount := range raw {
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
