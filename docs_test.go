package vault_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from the package docs
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Settler that accepts every transfer (wire a real payout here)
		settler := vault.SettlerFunc(func(context.Context, id.AccountID, types.Funds) error {
			return nil
		})

		// Create vault with 1 coin of initial funding
		v, err := vault.New(store, settler, vault.Coin(1),
			vault.WithLogger(slog.Default()),
			vault.WithJournalConfig(100, 5*time.Second),
		)
		if err != nil {
			t.Fatal(err)
		}

		// Start the engine
		ctx := context.Background()
		if err := v.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer v.Stop()

		// Admit a deposit
		account := id.NewAccountID()
		if err := v.Deposit(ctx, account, vault.Milli(500)); err != nil {
			t.Fatal(err)
		}

		// Query the recorded balance
		if balance := v.BalanceOf(account); !balance.Equal(vault.Milli(500)) {
			t.Fatalf("balance: got %v, want 0.5 coins", balance)
		}

		// Pay it back out
		if err := v.Withdraw(ctx, account); err != nil {
			t.Fatal(err)
		}

		// The drain path stays closed while the books balance
		if v.Dosed() {
			t.Fatal("expected a clean vault")
		}
		if _, err := v.Drain(ctx, account); err == nil {
			t.Fatal("expected drain to fail on a clean vault")
		}
	})
}
