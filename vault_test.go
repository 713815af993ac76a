package vault_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/journal"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/types"
)

// recordingSettler accumulates accepted transfers per account and can be
// told to reject everything.
type recordingSettler struct {
	mu        sync.Mutex
	transfers map[string]types.Funds
	reject    bool
}

func newRecordingSettler() *recordingSettler {
	return &recordingSettler{transfers: make(map[string]types.Funds)}
}

func (s *recordingSettler) Transfer(_ context.Context, account id.AccountID, amount types.Funds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject {
		return errors.New("recipient refused transfer")
	}
	s.transfers[account.String()] = s.transfers[account.String()].Add(amount)
	return nil
}

func (s *recordingSettler) received(account id.AccountID) types.Funds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transfers[account.String()]
}

func (s *recordingSettler) setReject(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = reject
}

func newTestVault(t *testing.T, funding types.Funds, opts ...vault.Option) (*vault.Vault, *recordingSettler) {
	t.Helper()
	settler := newRecordingSettler()
	v, err := vault.New(memory.New(), settler, funding, opts...)
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return v, settler
}

func TestNewValidation(t *testing.T) {
	t.Run("zero funding", func(t *testing.T) {
		_, err := vault.New(memory.New(), newRecordingSettler(), types.Zero())
		if !errors.Is(err, vault.ErrInvalidFunding) {
			t.Errorf("got %v, want ErrInvalidFunding", err)
		}
	})

	t.Run("negative funding", func(t *testing.T) {
		_, err := vault.New(memory.New(), newRecordingSettler(), types.Coin(-1))
		if !errors.Is(err, vault.ErrInvalidFunding) {
			t.Errorf("got %v, want ErrInvalidFunding", err)
		}
	})

	t.Run("nil settler", func(t *testing.T) {
		_, err := vault.New(memory.New(), nil, types.Coin(1))
		if !errors.Is(err, vault.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("valid", func(t *testing.T) {
		v, _ := newTestVault(t, types.Coin(1))
		if !v.Held().Equal(types.Coin(1)) {
			t.Errorf("held: got %v, want 1 coin", v.Held())
		}
		if v.Dosed() || v.Destroyed() {
			t.Error("fresh vault should be clean")
		}
	})
}

func TestDepositAdmission(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-unit amounts", func(t *testing.T) {
		v, _ := newTestVault(t, types.Milli(500))
		account := id.NewAccountID()

		for _, amount := range []types.Funds{
			types.Zero(),
			types.Nano(1),
			types.Milli(499),
			types.Milli(501),
			types.Coin(1),
		} {
			if err := v.Deposit(ctx, account, amount); !errors.Is(err, vault.ErrInvalidAmount) {
				t.Errorf("Deposit(%v): got %v, want ErrInvalidAmount", amount, err)
			}
		}
		if !v.BalanceOf(account).IsZero() {
			t.Errorf("rejected deposits must not change the balance, got %v", v.BalanceOf(account))
		}
	})

	t.Run("enforces per-account cap", func(t *testing.T) {
		// Low funding keeps the global cap out of the way.
		v, _ := newTestVault(t, types.Milli(500))
		account := id.NewAccountID()

		// The cap is two unit deposits.
		for i := 0; i < 2; i++ {
			if err := v.Deposit(ctx, account, types.Milli(500)); err != nil {
				t.Fatalf("deposit %d: %v", i+1, err)
			}
		}
		if !v.BalanceOf(account).Equal(types.Coin(1)) {
			t.Fatalf("balance: got %v, want 1 coin", v.BalanceOf(account))
		}

		err := v.Deposit(ctx, account, types.Milli(500))
		if !errors.Is(err, vault.ErrMaxDepositExceeded) {
			t.Errorf("got %v, want ErrMaxDepositExceeded", err)
		}
		if !v.BalanceOf(account).Equal(types.Coin(1)) {
			t.Errorf("failed deposit changed balance: %v", v.BalanceOf(account))
		}
	})

	t.Run("locks when holdings would reach the global cap", func(t *testing.T) {
		v, _ := newTestVault(t, types.Coin(1))
		a := id.NewAccountID()
		b := id.NewAccountID()

		if err := v.Deposit(ctx, a, types.Milli(500)); err != nil {
			t.Fatalf("first deposit: %v", err)
		}
		if !v.Held().Equal(types.Milli(1500)) {
			t.Fatalf("held: got %v, want 1.5 coins", v.Held())
		}

		// Accepting this would bring holdings to exactly the 2 coin cap.
		err := v.Deposit(ctx, b, types.Milli(500))
		if !errors.Is(err, vault.ErrDepositLocked) {
			t.Errorf("got %v, want ErrDepositLocked", err)
		}
		if !v.Held().Equal(types.Milli(1500)) {
			t.Errorf("failed deposit changed holdings: %v", v.Held())
		}
		if !v.BalanceOf(b).IsZero() {
			t.Errorf("failed deposit credited account: %v", v.BalanceOf(b))
		}
	})

	t.Run("rejects nil account", func(t *testing.T) {
		v, _ := newTestVault(t, types.Coin(1))
		if err := v.Deposit(ctx, id.Nil, types.Milli(500)); !errors.Is(err, vault.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})
}

func TestWithdrawCleanPath(t *testing.T) {
	ctx := context.Background()
	v, settler := newTestVault(t, types.Coin(1))
	account := id.NewAccountID()

	if err := v.Deposit(ctx, account, types.Milli(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := v.Withdraw(ctx, account); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if got := settler.received(account); !got.Equal(types.Milli(500)) {
		t.Errorf("settled: got %v, want 0.5 coins", got)
	}
	if !v.BalanceOf(account).IsZero() {
		t.Errorf("balance after withdraw: got %v, want 0", v.BalanceOf(account))
	}
	if !v.Held().Equal(types.Coin(1)) {
		t.Errorf("held after withdraw: got %v, want 1 coin", v.Held())
	}
	if v.Dosed() {
		t.Error("clean withdraw must not flip dosed")
	}

	// Second withdraw has nothing to pay.
	if err := v.Withdraw(ctx, account); !errors.Is(err, vault.ErrNoDeposit) {
		t.Errorf("second withdraw: got %v, want ErrNoDeposit", err)
	}
}

func TestWithdrawTransferFailed(t *testing.T) {
	ctx := context.Background()
	v, settler := newTestVault(t, types.Coin(1))
	account := id.NewAccountID()

	if err := v.Deposit(ctx, account, types.Milli(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	settler.setReject(true)
	err := v.Withdraw(ctx, account)
	if !errors.Is(err, vault.ErrTransferFailed) {
		t.Fatalf("got %v, want ErrTransferFailed", err)
	}

	// No partial debit: the record of what is owed survives the failure.
	if !v.BalanceOf(account).Equal(types.Milli(500)) {
		t.Errorf("balance: got %v, want 0.5 coins", v.BalanceOf(account))
	}
	if !v.Held().Equal(types.Milli(1500)) {
		t.Errorf("held: got %v, want 1.5 coins", v.Held())
	}
	if v.Dosed() {
		t.Error("transfer failure must not flip dosed")
	}

	// The same withdrawal succeeds once the recipient accepts.
	settler.setReject(false)
	if err := v.Withdraw(ctx, account); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := settler.received(account); !got.Equal(types.Milli(500)) {
		t.Errorf("settled: got %v, want 0.5 coins", got)
	}
}

func TestForcedCreditFreezesWithdrawals(t *testing.T) {
	ctx := context.Background()
	v, settler := newTestVault(t, types.Coin(1))
	a := id.NewAccountID()

	if err := v.Deposit(ctx, a, types.Milli(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// Funds arrive outside the deposit path.
	v.ForceCredit(types.Coin(19))
	if !v.Held().Equal(types.Milli(20500)) {
		t.Fatalf("held: got %v, want 20.5 coins", v.Held())
	}
	if v.Dosed() {
		t.Fatal("divergence must only be detected inside Withdraw")
	}

	// The withdrawal succeeds but has zero effect.
	if err := v.Withdraw(ctx, a); err != nil {
		t.Fatalf("frozen withdraw returned error: %v", err)
	}
	if !v.Dosed() {
		t.Fatal("withdraw should have flipped dosed")
	}
	if !settler.received(a).IsZero() {
		t.Errorf("frozen withdraw transferred funds: %v", settler.received(a))
	}
	if !v.BalanceOf(a).Equal(types.Milli(500)) {
		t.Errorf("frozen withdraw must preserve the record, got %v", v.BalanceOf(a))
	}
	if !v.Held().Equal(types.Milli(20500)) {
		t.Errorf("frozen withdraw changed holdings: %v", v.Held())
	}

	// Sticky: every later withdrawal behaves the same.
	for i := 0; i < 3; i++ {
		if err := v.Withdraw(ctx, a); err != nil {
			t.Fatalf("repeat frozen withdraw %d: %v", i, err)
		}
	}
	if !v.BalanceOf(a).Equal(types.Milli(500)) || !settler.received(a).IsZero() {
		t.Error("dosed flag must be sticky")
	}

	// An account with no deposit still gets NoDeposit, dosed or not.
	if err := v.Withdraw(ctx, id.NewAccountID()); !errors.Is(err, vault.ErrNoDeposit) {
		t.Errorf("got %v, want ErrNoDeposit", err)
	}
}

func TestDrain(t *testing.T) {
	ctx := context.Background()

	t.Run("fails while clean", func(t *testing.T) {
		v, _ := newTestVault(t, types.Coin(1))
		if _, err := v.Drain(ctx, id.NewAccountID()); !errors.Is(err, vault.ErrNotDosed) {
			t.Errorf("got %v, want ErrNotDosed", err)
		}
	})

	t.Run("open to any caller once dosed", func(t *testing.T) {
		v, settler := newTestVault(t, types.Coin(1))
		a := id.NewAccountID()

		if err := v.Deposit(ctx, a, types.Milli(500)); err != nil {
			t.Fatalf("deposit: %v", err)
		}
		v.ForceCredit(types.Coin(19))
		if err := v.Withdraw(ctx, a); err != nil {
			t.Fatalf("withdraw: %v", err)
		}

		// An account that never deposited drains everything.
		outsider := id.NewAccountID()
		amount, err := v.Drain(ctx, outsider)
		if err != nil {
			t.Fatalf("drain: %v", err)
		}
		if !amount.Equal(types.Milli(20500)) {
			t.Errorf("drained: got %v, want 20.5 coins", amount)
		}
		if got := settler.received(outsider); !got.Equal(types.Milli(20500)) {
			t.Errorf("settled: got %v, want 20.5 coins", got)
		}
		if !v.Held().IsZero() {
			t.Errorf("held after drain: got %v, want 0", v.Held())
		}
		if !v.Destroyed() {
			t.Error("drain must destroy the vault")
		}

		// Nothing works afterwards.
		if err := v.Deposit(ctx, a, types.Milli(500)); !errors.Is(err, vault.ErrDestroyed) {
			t.Errorf("deposit after drain: got %v, want ErrDestroyed", err)
		}
		if err := v.Withdraw(ctx, a); !errors.Is(err, vault.ErrDestroyed) {
			t.Errorf("withdraw after drain: got %v, want ErrDestroyed", err)
		}
		if _, err := v.Drain(ctx, outsider); !errors.Is(err, vault.ErrDestroyed) {
			t.Errorf("second drain: got %v, want ErrDestroyed", err)
		}
	})

	t.Run("rejected transfer leaves vault intact", func(t *testing.T) {
		v, settler := newTestVault(t, types.Coin(1))
		a := id.NewAccountID()

		if err := v.Deposit(ctx, a, types.Milli(500)); err != nil {
			t.Fatalf("deposit: %v", err)
		}
		v.ForceCredit(types.Coin(1))
		if err := v.Withdraw(ctx, a); err != nil {
			t.Fatalf("withdraw: %v", err)
		}

		settler.setReject(true)
		if _, err := v.Drain(ctx, a); !errors.Is(err, vault.ErrTransferFailed) {
			t.Fatalf("got %v, want ErrTransferFailed", err)
		}
		if !v.Held().Equal(types.Milli(2500)) {
			t.Errorf("held: got %v, want 2.5 coins", v.Held())
		}
		if v.Destroyed() {
			t.Error("failed drain must not destroy the vault")
		}

		settler.setReject(false)
		amount, err := v.Drain(ctx, a)
		if err != nil {
			t.Fatalf("retry drain: %v", err)
		}
		if !amount.Equal(types.Milli(2500)) {
			t.Errorf("drained: got %v, want 2.5 coins", amount)
		}
	})
}

// reentrantSettler calls back into the vault during settlement.
type reentrantSettler struct {
	vault    *vault.Vault
	account  id.AccountID
	inner    error
	received types.Funds
	calls    int
}

func (s *reentrantSettler) Transfer(ctx context.Context, _ id.AccountID, amount types.Funds) error {
	s.calls++
	s.received = s.received.Add(amount)
	if s.calls == 1 {
		// The ledger must already be debited by the time we run.
		s.inner = s.vault.Withdraw(ctx, s.account)
	}
	return nil
}

func TestReentrantWithdrawCannotDoublePay(t *testing.T) {
	ctx := context.Background()
	settler := &reentrantSettler{}
	v, err := vault.New(memory.New(), settler, types.Coin(1))
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	account := id.NewAccountID()
	settler.vault = v
	settler.account = account

	if err := v.Deposit(ctx, account, types.Milli(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := v.Withdraw(ctx, account); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if !errors.Is(settler.inner, vault.ErrNoDeposit) {
		t.Errorf("reentrant withdraw: got %v, want ErrNoDeposit", settler.inner)
	}
	if !settler.received.Equal(types.Milli(500)) {
		t.Errorf("total paid: got %v, want 0.5 coins", settler.received)
	}
}

func TestSnapshotResume(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	settler := newRecordingSettler()

	v, err := vault.New(s, settler, types.Coin(1))
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	account := id.NewAccountID()
	if err := v.Deposit(ctx, account, types.Milli(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	v.ForceCredit(types.Coin(19))

	st, err := v.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !st.Held.Equal(types.Milli(20500)) {
		t.Errorf("snapshot held: got %v, want 20.5 coins", st.Held)
	}
	if !st.Baseline.Equal(types.Coin(1)) {
		t.Errorf("snapshot baseline: got %v, want 1 coin", st.Baseline)
	}

	resumed, err := vault.Resume(ctx, s, settler, v.ID())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed.Held().Equal(v.Held()) {
		t.Errorf("resumed held: got %v, want %v", resumed.Held(), v.Held())
	}
	if !resumed.BalanceOf(account).Equal(types.Milli(500)) {
		t.Errorf("resumed balance: got %v, want 0.5 coins", resumed.BalanceOf(account))
	}
	if resumed.Dosed() {
		t.Error("divergence was never observed, resumed vault must be clean")
	}

	// The forced credit is still detectable after resume.
	if err := resumed.Withdraw(ctx, account); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !resumed.Dosed() {
		t.Error("resumed vault should detect the divergence")
	}

	t.Run("unknown vault", func(t *testing.T) {
		_, err := vault.Resume(ctx, s, settler, id.NewVaultID())
		if !errors.Is(err, vault.ErrSnapshotNotFound) {
			t.Errorf("got %v, want ErrSnapshotNotFound", err)
		}
	})
}

func TestJournalRecordsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	settler := newRecordingSettler()

	v, err := vault.New(s, settler, types.Coin(1),
		vault.WithJournalConfig(1, 10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	if err := v.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	account := id.NewAccountID()
	if err := v.Deposit(ctx, account, types.Milli(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := v.Withdraw(ctx, account); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if err := v.Deposit(ctx, account, types.Milli(500)); err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	v.ForceCredit(types.Coin(5))
	if err := v.Withdraw(ctx, account); err != nil {
		t.Fatalf("frozen withdraw: %v", err)
	}

	// Stop drains the journal buffer.
	if err := v.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	entries, err := s.ListEntries(ctx, v.ID(), journal.QueryOpts{})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}

	counts := make(map[journal.Kind]int)
	for _, e := range entries {
		counts[e.Kind]++
	}
	want := map[journal.Kind]int{
		journal.KindDeposit:          2,
		journal.KindWithdrawal:       1,
		journal.KindDivergence:       1,
		journal.KindWithdrawalFrozen: 1,
	}
	for kind, n := range want {
		if counts[kind] != n {
			t.Errorf("%s entries: got %d, want %d", kind, counts[kind], n)
		}
	}

	t.Run("filter by kind", func(t *testing.T) {
		deposits, err := s.ListEntries(ctx, v.ID(), journal.QueryOpts{Kind: journal.KindDeposit})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(deposits) != 2 {
			t.Errorf("got %d deposit entries, want 2", len(deposits))
		}
	})
}
