package vault

import "errors"

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput   = errors.New("vault: invalid input")
	ErrInvalidFunding = errors.New("vault: initial funding must be positive")

	// Deposit admission errors
	ErrInvalidAmount      = errors.New("vault: deposit amount must equal the unit deposit size")
	ErrMaxDepositExceeded = errors.New("vault: deposit would exceed the per-account cap")
	ErrDepositLocked      = errors.New("vault: deposit would reach the global holdings cap")

	// Withdrawal errors
	ErrNoDeposit      = errors.New("vault: account has no recorded deposit")
	ErrTransferFailed = errors.New("vault: outbound transfer rejected by recipient")

	// Drain errors
	ErrNotDosed = errors.New("vault: drain requires a detected divergence")

	// Lifecycle errors
	ErrDestroyed = errors.New("vault: vault has been drained and destroyed")

	// Store errors
	ErrSnapshotNotFound = errors.New("vault: snapshot not found")
	ErrStoreClosed      = errors.New("vault: store is closed")
	ErrJournalFull      = errors.New("vault: journal buffer full")
)

// IsAdmissionError returns true if the error is a deposit admission failure.
func IsAdmissionError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMaxDepositExceeded) ||
		errors.Is(err, ErrDepositLocked)
}

// IsTerminal returns true if the error indicates the vault can never again
// accept the operation, as opposed to a per-call failure.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrDestroyed)
}

// IsRetryable returns true if the error is temporary and the operation can be
// retried by the caller. A rejected transfer is retryable because the
// recipient, not the vault, refused it.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransferFailed) ||
		errors.Is(err, ErrJournalFull)
}
