// Package journal defines the append-only record of vault lifecycle events.
package journal

import (
	"time"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Kind classifies a journal entry.
type Kind string

// Entry kinds.
const (
	KindDeposit          Kind = "deposit"           // Admitted deposit
	KindWithdrawal       Kind = "withdrawal"        // Paid-out withdrawal
	KindWithdrawalFrozen Kind = "withdrawal_frozen" // Zero-effect withdrawal after divergence
	KindDivergence       Kind = "divergence"        // Holdings diverged from accounted total
	KindDrain            Kind = "drain"             // Terminal drain of all holdings
	KindSnapshot         Kind = "snapshot"          // State snapshot persisted
)

// Entry is a single journal record. Entries are written asynchronously and
// best-effort; they describe the vault's history but are never the
// authoritative state.
type Entry struct {
	ID        id.EntryID        `json:"id"`
	VaultID   id.VaultID        `json:"vault_id"`
	Account   id.AccountID      `json:"account,omitempty"`
	Kind      Kind              `json:"kind"`
	Amount    types.Funds       `json:"amount"`
	HeldAfter types.Funds       `json:"held_after"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// QueryOpts filters journal queries.
type QueryOpts struct {
	Account id.AccountID
	Kind    Kind
	Start   time.Time
	End     time.Time
	Limit   int
	Offset  int
}
