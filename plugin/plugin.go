// Package plugin provides an extensible plugin system for Vault.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/vault/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, v interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Deposit hooks
// ──────────────────────────────────────────────────

// OnDepositAccepted is called when a deposit passes admission control.
type OnDepositAccepted interface {
	Plugin
	OnDepositAccepted(ctx context.Context, account string, amount, heldAfter types.Funds) error
}

// OnDepositRejected is called when a deposit fails admission control.
type OnDepositRejected interface {
	Plugin
	OnDepositRejected(ctx context.Context, account string, amount types.Funds, err error) error
}

// ──────────────────────────────────────────────────
// Withdrawal hooks
// ──────────────────────────────────────────────────

// OnWithdrawalPaid is called when a withdrawal pays out through the settler.
type OnWithdrawalPaid interface {
	Plugin
	OnWithdrawalPaid(ctx context.Context, account string, amount types.Funds) error
}

// OnWithdrawalFrozen is called when a withdrawal completes with zero effect
// because the vault has observed an accounting divergence.
type OnWithdrawalFrozen interface {
	Plugin
	OnWithdrawalFrozen(ctx context.Context, account string, owed types.Funds) error
}

// ──────────────────────────────────────────────────
// Integrity hooks
// ──────────────────────────────────────────────────

// OnDivergenceDetected is called exactly once, when the vault first observes
// that its holdings no longer match the baseline plus the accounted total.
type OnDivergenceDetected interface {
	Plugin
	OnDivergenceDetected(ctx context.Context, held, expected types.Funds) error
}

// OnDrained is called when the terminal drain executes.
type OnDrained interface {
	Plugin
	OnDrained(ctx context.Context, account string, amount types.Funds) error
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed is called when buffered journal entries are flushed
// to the store.
type OnJournalFlushed interface {
	Plugin
	OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error
}

// OnSnapshotSaved is called when a state snapshot is persisted.
type OnSnapshotSaved interface {
	Plugin
	OnSnapshotSaved(ctx context.Context, st interface{}) error
}
