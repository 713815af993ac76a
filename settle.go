package vault

import (
	"context"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Settler performs outbound transfers from the vault's custody to an
// account's external balance. The recipient may refuse the transfer; the
// vault treats refusal as a recoverable failure of the one operation.
//
// The vault always commits its own bookkeeping before invoking the settler,
// so a settler that re-enters the vault observes a consistent,
// already-debited ledger.
type Settler interface {
	Transfer(ctx context.Context, account id.AccountID, amount types.Funds) error
}

// SettlerFunc is an adapter to use a plain function as a Settler.
type SettlerFunc func(ctx context.Context, account id.AccountID, amount types.Funds) error

// Transfer implements Settler.
func (f SettlerFunc) Transfer(ctx context.Context, account id.AccountID, amount types.Funds) error {
	return f(ctx, account, amount)
}
