// Package vault provides a single-asset custodial ledger for Go applications.
//
// Vault is designed as a library, not a service. Import it directly into your
// Go application. It provides:
//
//   - Fixed-unit deposit admission with per-account and global caps
//   - Withdrawals that re-derive a holdings-vs-accounted integrity check on
//     every call
//   - Automatic freeze of normal payouts when holdings diverge from the
//     accounted total, with a terminal drain operation that recovers the
//     entire balance
//   - Batched journal ingestion with pluggable persistence (memory, SQLite,
//     Postgres, MongoDB)
//   - Point-in-time snapshots and resume
//   - Lifecycle hooks via a plugin registry, with a built-in audit bridge
//
// # Quick Start
//
// Create a vault instance with your preferred store:
//
//	import (
//	    "github.com/xraph/vault"
//	    "github.com/xraph/vault/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create vault with 1 coin of initial funding
//	v, err := vault.New(store, settler, vault.Coin(1))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start the vault (begins background workers)
//	if err := v.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Stop()
//
// # Core Concepts
//
// Deposits admit currency into custody in fixed units:
//
//	err := v.Deposit(ctx, account, vault.Milli(500))
//
// Withdrawals pay out an account's full recorded balance through the
// Settler:
//
//	err := v.Withdraw(ctx, account)
//
// Every withdrawal first checks that the vault's actual holdings match the
// initial funding plus the sum of recorded balances. Currency can enter
// custody outside the deposit
// path (the environment may route funds to the vault directly); once that
// happens the totals diverge, the vault marks itself dosed, and normal
// withdrawals freeze. From that point Drain transfers the entire holdings to
// whichever account calls it and destroys the vault:
//
//	if v.Dosed() {
//	    amount, err := v.Drain(ctx, account)
//	    ...
//	}
//
// The frozen withdrawal path succeeds with zero effect; it is not an error.
// The open drain is the designed consequence of the integrity violation.
package vault
