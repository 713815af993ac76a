package audithook

// Action constants for audit events.
const (
	// Deposit actions
	ActionDepositAccepted = "deposit.accepted"
	ActionDepositRejected = "deposit.rejected"

	// Withdrawal actions
	ActionWithdrawalPaid   = "withdrawal.paid"
	ActionWithdrawalFrozen = "withdrawal.frozen"

	// Integrity actions
	ActionDivergenceDetected = "divergence.detected"
	ActionVaultDrained       = "vault.drained"

	// Persistence actions
	ActionJournalFlushed = "journal.flushed"
	ActionSnapshotSaved  = "snapshot.saved"
)

// Resource constants for audit events.
const (
	ResourceDeposit    = "deposit"
	ResourceWithdrawal = "withdrawal"
	ResourceVault      = "vault"
	ResourceJournal    = "journal"
	ResourceSnapshot   = "snapshot"
)

// Category constants for audit events.
const (
	CategoryCustody     = "custody"
	CategoryIntegrity   = "integrity"
	CategoryPersistence = "persistence"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
