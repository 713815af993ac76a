// Package audithook bridges Vault lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnDepositAccepted    = (*Extension)(nil)
	_ plugin.OnDepositRejected    = (*Extension)(nil)
	_ plugin.OnWithdrawalPaid     = (*Extension)(nil)
	_ plugin.OnWithdrawalFrozen   = (*Extension)(nil)
	_ plugin.OnDivergenceDetected = (*Extension)(nil)
	_ plugin.OnDrained            = (*Extension)(nil)
	_ plugin.OnJournalFlushed     = (*Extension)(nil)
	_ plugin.OnSnapshotSaved      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Vault lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Deposit lifecycle hooks
// ──────────────────────────────────────────────────

// OnDepositAccepted implements plugin.OnDepositAccepted.
func (e *Extension) OnDepositAccepted(ctx context.Context, account string, amount, heldAfter types.Funds) error {
	return e.record(ctx, ActionDepositAccepted, SeverityInfo, OutcomeSuccess,
		ResourceDeposit, account, CategoryCustody, nil,
		"account", account,
		"amount", amount.FormatCoins(),
		"held_after", heldAfter.FormatCoins(),
	)
}

// OnDepositRejected implements plugin.OnDepositRejected.
func (e *Extension) OnDepositRejected(ctx context.Context, account string, amount types.Funds, cause error) error {
	return e.record(ctx, ActionDepositRejected, SeverityWarning, OutcomeFailure,
		ResourceDeposit, account, CategoryCustody, cause,
		"account", account,
		"amount", amount.FormatCoins(),
	)
}

// ──────────────────────────────────────────────────
// Withdrawal lifecycle hooks
// ──────────────────────────────────────────────────

// OnWithdrawalPaid implements plugin.OnWithdrawalPaid.
func (e *Extension) OnWithdrawalPaid(ctx context.Context, account string, amount types.Funds) error {
	return e.record(ctx, ActionWithdrawalPaid, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, account, CategoryCustody, nil,
		"account", account,
		"amount", amount.FormatCoins(),
	)
}

// OnWithdrawalFrozen implements plugin.OnWithdrawalFrozen.
func (e *Extension) OnWithdrawalFrozen(ctx context.Context, account string, owed types.Funds) error {
	return e.record(ctx, ActionWithdrawalFrozen, SeverityWarning, OutcomePartial,
		ResourceWithdrawal, account, CategoryIntegrity, nil,
		"account", account,
		"owed", owed.FormatCoins(),
	)
}

// ──────────────────────────────────────────────────
// Integrity lifecycle hooks
// ──────────────────────────────────────────────────

// OnDivergenceDetected implements plugin.OnDivergenceDetected.
func (e *Extension) OnDivergenceDetected(ctx context.Context, held, expected types.Funds) error {
	return e.record(ctx, ActionDivergenceDetected, SeverityCritical, OutcomeFailure,
		ResourceVault, "", CategoryIntegrity, nil,
		"held", held.FormatCoins(),
		"expected", expected.FormatCoins(),
		"excess", held.Subtract(expected).FormatCoins(),
	)
}

// OnDrained implements plugin.OnDrained.
func (e *Extension) OnDrained(ctx context.Context, account string, amount types.Funds) error {
	return e.record(ctx, ActionVaultDrained, SeverityCritical, OutcomeSuccess,
		ResourceVault, account, CategoryIntegrity, nil,
		"account", account,
		"amount", amount.FormatCoins(),
	)
}

// ──────────────────────────────────────────────────
// Persistence lifecycle hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (e *Extension) OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error {
	return e.record(ctx, ActionJournalFlushed, SeverityInfo, OutcomeSuccess,
		ResourceJournal, "", CategoryPersistence, nil,
		"count", count,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnSnapshotSaved implements plugin.OnSnapshotSaved.
func (e *Extension) OnSnapshotSaved(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSnapshotSaved, SeverityInfo, OutcomeSuccess,
		ResourceSnapshot, "", CategoryPersistence, nil,
		"event", "snapshot_saved",
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
