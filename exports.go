package vault

import "github.com/xraph/vault/types"

// Re-export common types for convenience so users don't have to import types package.

// Funds is re-exported from types package.
type Funds = types.Funds

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Funds constructors
var (
	Nano     = types.Nano
	Micro    = types.Micro
	Milli    = types.Milli
	Coin     = types.Coin
	Zero     = types.Zero
	SumFunds = types.SumFunds
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
