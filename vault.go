package vault

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/journal"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/snapshot"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/types"
)

// Default admission-control constants. The global cap is an independent
// configured value; it is never derived from the initial funding at runtime.
var (
	// DefaultUnitDeposit is the only admissible deposit size (0.5 coins).
	DefaultUnitDeposit = types.Milli(500)

	// DefaultAccountCap is the most a single account may have recorded
	// (two unit deposits).
	DefaultAccountCap = types.Coin(1)

	// DefaultGlobalCap locks deposits once accepting one would bring the
	// vault's holdings to this level or beyond.
	DefaultGlobalCap = types.Coin(2)
)

// Vault is a single-asset custodial ledger. It admits fixed-size deposits
// and, on every withdrawal, re-checks that its holdings still equal the
// baseline funding plus the accounted total. Once an out-of-band forced
// credit is detected it freezes normal payouts and opens the terminal drain
// to any caller. The degrade-on-detect behaviour, including the open drain,
// is intentional.
type Vault struct {
	store   store.Store
	settler Settler
	plugins *plugin.Registry
	logger  *slog.Logger

	// Background workers
	journalBuffer chan *journal.Entry
	stopChan      chan struct{}
	wg            sync.WaitGroup

	// Configuration
	unitDeposit          types.Funds
	accountCap           types.Funds
	globalCap            types.Funds
	journalBatchSize     int
	journalFlushInterval time.Duration

	// Ledger state. Every public operation commits all of its bookkeeping
	// under mu before any control passes to the settler.
	mu        sync.Mutex
	vaultID   id.VaultID
	held      types.Funds
	baseline  types.Funds
	accounted map[string]types.Funds
	dosed     bool
	destroyed bool
}

// New creates a Vault holding the given initial funding. The funding must be
// positive. The accounted map starts empty and the funding becomes the
// integrity baseline: holdings should always equal the baseline plus the sum
// of recorded entitlements, because deposits and withdrawals move both sides
// in lockstep. Only a forced credit breaks that equality.
func New(s store.Store, settler Settler, initialFunding types.Funds, opts ...Option) (*Vault, error) {
	if !initialFunding.IsPositive() {
		return nil, ErrInvalidFunding
	}
	if settler == nil {
		return nil, fmt.Errorf("%w: nil settler", ErrInvalidInput)
	}

	v := &Vault{
		store:                s,
		settler:              settler,
		plugins:              plugin.NewRegistry(),
		logger:               slog.Default(),
		journalBuffer:        make(chan *journal.Entry, 10000),
		stopChan:             make(chan struct{}),
		unitDeposit:          DefaultUnitDeposit,
		accountCap:           DefaultAccountCap,
		globalCap:            DefaultGlobalCap,
		journalBatchSize:     100,
		journalFlushInterval: 5 * time.Second,
		vaultID:              id.NewVaultID(),
		held:                 initialFunding,
		baseline:             initialFunding,
		accounted:            make(map[string]types.Funds),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

// Resume reconstructs a Vault from its latest persisted snapshot.
// A snapshot taken after the drain resumes as a destroyed vault.
func Resume(ctx context.Context, s store.Store, settler Settler, vaultID id.VaultID, opts ...Option) (*Vault, error) {
	st, err := s.LatestSnapshot(ctx, vaultID)
	if err != nil {
		return nil, err
	}

	v := &Vault{
		store:                s,
		settler:              settler,
		plugins:              plugin.NewRegistry(),
		logger:               slog.Default(),
		journalBuffer:        make(chan *journal.Entry, 10000),
		stopChan:             make(chan struct{}),
		unitDeposit:          DefaultUnitDeposit,
		accountCap:           DefaultAccountCap,
		globalCap:            DefaultGlobalCap,
		journalBatchSize:     100,
		journalFlushInterval: 5 * time.Second,
		vaultID:              st.VaultID,
		held:                 st.Held,
		baseline:             st.Baseline,
		dosed:                st.Dosed,
		destroyed:            st.Destroyed,
		accounted:            make(map[string]types.Funds, len(st.Accounted)),
	}
	for account, amount := range st.Accounted {
		v.accounted[account] = amount
	}

	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

// Option configures a Vault instance.
type Option func(*Vault)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
		v.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(v *Vault) {
		_ = v.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCaps overrides the admission-control constants: the unit deposit size,
// the per-account cap, and the global holdings cap.
func WithCaps(unitDeposit, accountCap, globalCap types.Funds) Option {
	return func(v *Vault) {
		v.unitDeposit = unitDeposit
		v.accountCap = accountCap
		v.globalCap = globalCap
	}
}

// WithJournalConfig configures journal batching parameters.
func WithJournalConfig(batchSize int, flushInterval time.Duration) Option {
	return func(v *Vault) {
		v.journalBatchSize = batchSize
		v.journalFlushInterval = flushInterval
	}
}

// WithVaultID sets the vault identity instead of generating one.
func WithVaultID(vaultID id.VaultID) Option {
	return func(v *Vault) {
		v.vaultID = vaultID
	}
}

// Start begins background workers.
func (v *Vault) Start(ctx context.Context) error {
	// Migrate the journal/snapshot store
	if err := v.store.Migrate(ctx); err != nil {
		return err
	}

	// Initialize plugins
	v.plugins.EmitInit(ctx, v)

	// Start journal flush worker
	v.wg.Add(1)
	go v.journalFlushWorker(ctx)

	v.logger.Info("vault started",
		"vault_id", v.vaultID.String(),
		"held", v.Held().FormatCoins(),
		"unit_deposit", v.unitDeposit.FormatCoins(),
		"account_cap", v.accountCap.FormatCoins(),
		"global_cap", v.globalCap.FormatCoins(),
	)

	return nil
}

// Stop shuts down the Vault's workers and closes the store.
func (v *Vault) Stop() error {
	close(v.stopChan)
	v.wg.Wait()

	ctx := context.Background()
	v.plugins.EmitShutdown(ctx)

	return v.store.Close()
}

// ──────────────────────────────────────────────────
// Deposit admission
// ──────────────────────────────────────────────────

// Deposit admits currency into custody on behalf of account. The amount must
// equal the unit deposit size exactly, the account's recorded total may not
// exceed the per-account cap, and the vault's holdings after acceptance must
// stay below the global cap.
func (v *Vault) Deposit(ctx context.Context, account id.AccountID, amount types.Funds) error {
	if account.IsNil() {
		return ErrInvalidInput
	}
	key := account.String()

	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return ErrDestroyed
	}

	if err := v.admitLocked(key, amount); err != nil {
		v.mu.Unlock()
		v.plugins.EmitDepositRejected(ctx, key, amount, err)
		return err
	}

	v.accounted[key] = v.accounted[key].Add(amount)
	v.held = v.held.Add(amount)
	heldAfter := v.held
	v.mu.Unlock()

	v.record(account, journal.KindDeposit, amount, heldAfter)
	v.plugins.EmitDepositAccepted(ctx, key, amount, heldAfter)

	v.logger.Debug("deposit accepted",
		"account", key,
		"amount", amount.FormatCoins(),
		"held", heldAfter.FormatCoins(),
	)

	return nil
}

// admitLocked applies the three admission rules in order. Callers hold mu.
func (v *Vault) admitLocked(key string, amount types.Funds) error {
	if !amount.Equal(v.unitDeposit) {
		return ErrInvalidAmount
	}
	if v.accounted[key].Add(amount).GreaterThan(v.accountCap) {
		return ErrMaxDepositExceeded
	}
	if v.held.Add(amount).AtLeast(v.globalCap) {
		return ErrDepositLocked
	}
	return nil
}

// ──────────────────────────────────────────────────
// Consistency check & withdrawal
// ──────────────────────────────────────────────────

// Withdraw returns the account's recorded balance through the settler.
//
// If the holdings diverge from the baseline plus the accounted total, the
// sticky dosed flag flips and this call, like every later one, succeeds with
// zero effect: no transfer, and the record of what was owed is preserved.
//
// On the clean path the debit commits before the settler runs, so a
// reentrant call during settlement observes the already-updated ledger. A
// rejected transfer fails the whole call with ErrTransferFailed and restores
// the exact prior amounts.
func (v *Vault) Withdraw(ctx context.Context, account id.AccountID) error {
	if account.IsNil() {
		return ErrInvalidInput
	}
	key := account.String()

	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return ErrDestroyed
	}

	owed := v.accounted[key]
	if owed.IsZero() {
		v.mu.Unlock()
		return ErrNoDeposit
	}

	// Expected holdings are re-derived on every call, never cached, so a
	// forced credit that arrived since the last call is still caught.
	expected := v.baseline.Add(v.accountedTotalLocked())
	newlyDosed := false
	if !v.dosed && !v.held.Equal(expected) {
		v.dosed = true
		newlyDosed = true
	}

	if v.dosed {
		held := v.held
		v.mu.Unlock()

		if newlyDosed {
			v.logger.Warn("accounting divergence detected, withdrawals frozen",
				"vault_id", v.vaultID.String(),
				"held", held.FormatCoins(),
				"expected", expected.FormatCoins(),
			)
			v.record(id.Nil, journal.KindDivergence, held.Subtract(expected), held)
			v.plugins.EmitDivergenceDetected(ctx, held, expected)
		}

		v.record(account, journal.KindWithdrawalFrozen, owed, held)
		v.plugins.EmitWithdrawalFrozen(ctx, key, owed)

		// Zero-effect success: the frozen path is not an error.
		return nil
	}

	// Debit before transfer.
	delete(v.accounted, key)
	v.held = v.held.Subtract(owed)
	heldAfter := v.held
	v.mu.Unlock()

	if err := v.settler.Transfer(ctx, account, owed); err != nil {
		v.mu.Lock()
		v.accounted[key] = v.accounted[key].Add(owed)
		v.held = v.held.Add(owed)
		v.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	v.record(account, journal.KindWithdrawal, owed, heldAfter)
	v.plugins.EmitWithdrawalPaid(ctx, key, owed)

	v.logger.Debug("withdrawal paid",
		"account", key,
		"amount", owed.FormatCoins(),
		"held", heldAfter.FormatCoins(),
	)

	return nil
}

// ──────────────────────────────────────────────────
// Terminal drain
// ──────────────────────────────────────────────────

// Drain transfers the vault's entire current holdings (not just the
// caller's accounted amount) to the calling account and permanently
// destroys the vault. It is open to any caller once the dosed flag is set;
// that is the designed consequence of the integrity violation, not a guarded
// admin function. Returns the drained amount.
func (v *Vault) Drain(ctx context.Context, account id.AccountID) (types.Funds, error) {
	if account.IsNil() {
		return types.Zero(), ErrInvalidInput
	}
	key := account.String()

	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return types.Zero(), ErrDestroyed
	}
	if !v.dosed {
		v.mu.Unlock()
		return types.Zero(), ErrNotDosed
	}

	// Zeroize before transfer, mirroring the withdrawal ordering.
	amount := v.held
	v.held = types.Zero()
	v.destroyed = true
	v.mu.Unlock()

	if err := v.settler.Transfer(ctx, account, amount); err != nil {
		v.mu.Lock()
		v.held = v.held.Add(amount)
		v.destroyed = false
		v.mu.Unlock()
		return types.Zero(), fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	v.record(account, journal.KindDrain, amount, types.Zero())
	v.plugins.EmitDrained(ctx, key, amount)

	v.logger.Warn("vault drained",
		"vault_id", v.vaultID.String(),
		"account", key,
		"amount", amount.FormatCoins(),
	)

	return amount, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// ID returns the vault's identity.
func (v *Vault) ID() id.VaultID { return v.vaultID }

// BalanceOf returns the amount the account is entitled to withdraw.
func (v *Vault) BalanceOf(account id.AccountID) types.Funds {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.accounted[account.String()]
}

// Held returns the vault's actual current holdings.
func (v *Vault) Held() types.Funds {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.held
}

// AccountedTotal returns the sum of all recorded entitlements.
func (v *Vault) AccountedTotal() types.Funds {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.accountedTotalLocked()
}

// Baseline returns the integrity baseline, the initial funding amount.
func (v *Vault) Baseline() types.Funds {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.baseline
}

// Dosed reports whether an accounting divergence has been detected.
// The flag is sticky: once true it never resets.
func (v *Vault) Dosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dosed
}

// Destroyed reports whether the terminal drain has executed.
func (v *Vault) Destroyed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyed
}

func (v *Vault) accountedTotalLocked() types.Funds {
	var total types.Funds
	for _, amount := range v.accounted {
		total = total.Add(amount)
	}
	return total
}

// ──────────────────────────────────────────────────
// Funding agent interface
// ──────────────────────────────────────────────────

// ForceCredit models currency entering the vault's custody outside the
// deposit path (e.g. routed to it as the fallback recipient of another
// entity's self-termination). The vault cannot distinguish the source of an
// increase, so nothing is logged, journaled or emitted here; the divergence
// surfaces on the next Withdraw.
func (v *Vault) ForceCredit(amount types.Funds) {
	v.mu.Lock()
	v.held = v.held.Add(amount)
	v.mu.Unlock()
}

// ──────────────────────────────────────────────────
// Snapshots
// ──────────────────────────────────────────────────

// Snapshot persists a point-in-time copy of the vault's full state.
func (v *Vault) Snapshot(ctx context.Context) (*snapshot.State, error) {
	v.mu.Lock()
	st := &snapshot.State{
		Entity:    types.NewEntity(),
		ID:        id.NewSnapshotID(),
		VaultID:   v.vaultID,
		Held:      v.held,
		Baseline:  v.baseline,
		Accounted: make(map[string]types.Funds, len(v.accounted)),
		Dosed:     v.dosed,
		Destroyed: v.destroyed,
		TakenAt:   time.Now().UTC(),
	}
	for account, amount := range v.accounted {
		st.Accounted[account] = amount
	}
	v.mu.Unlock()

	if err := v.store.SaveSnapshot(ctx, st); err != nil {
		return nil, err
	}

	v.record(id.Nil, journal.KindSnapshot, types.Zero(), st.Held)
	v.plugins.EmitSnapshotSaved(ctx, st)

	return st, nil
}

// ──────────────────────────────────────────────────
// Journal pipeline
// ──────────────────────────────────────────────────

// record enqueues a journal entry (non-blocking, best-effort).
func (v *Vault) record(account id.AccountID, kind journal.Kind, amount, heldAfter types.Funds) {
	entry := &journal.Entry{
		ID:        id.NewEntryID(),
		VaultID:   v.vaultID,
		Account:   account,
		Kind:      kind,
		Amount:    amount,
		HeldAfter: heldAfter,
		Timestamp: time.Now().UTC(),
	}

	select {
	case v.journalBuffer <- entry:
	default:
		v.logger.Warn("journal buffer full, dropping entry",
			"kind", string(kind),
			"account", account.String(),
		)
	}
}

// journalFlushWorker flushes journal entries to the store.
func (v *Vault) journalFlushWorker(ctx context.Context) {
	defer v.wg.Done()

	batch := make([]*journal.Entry, 0, v.journalBatchSize)
	ticker := time.NewTicker(v.journalFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-v.stopChan:
			// Final flush
			for {
				select {
				case entry := <-v.journalBuffer:
					batch = append(batch, entry)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				v.flushJournalBatch(ctx, batch)
			}
			return

		case entry := <-v.journalBuffer:
			batch = append(batch, entry)
			if len(batch) >= v.journalBatchSize {
				v.flushJournalBatch(ctx, batch)
				batch = make([]*journal.Entry, 0, v.journalBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				v.flushJournalBatch(ctx, batch)
				batch = make([]*journal.Entry, 0, v.journalBatchSize)
			}
		}
	}
}

func (v *Vault) flushJournalBatch(ctx context.Context, batch []*journal.Entry) {
	start := time.Now()

	if err := v.store.AppendEntries(ctx, batch); err != nil {
		v.logger.Error("failed to flush journal batch",
			"error", err,
			"batch_size", len(batch),
		)
		return
	}

	elapsed := time.Since(start)
	v.plugins.EmitJournalFlushed(ctx, len(batch), elapsed)

	v.logger.Debug("flushed journal batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}
