// Package snapshot defines the persisted form of a vault's full state.
package snapshot

import (
	"time"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// State is a point-in-time copy of everything a vault knows: actual
// holdings, per-account entitlements, and the two lifecycle flags.
// The accounted map is keyed by account ID string.
type State struct {
	types.Entity

	ID        id.SnapshotID          `json:"id"`
	VaultID   id.VaultID             `json:"vault_id"`
	Held      types.Funds            `json:"held"`
	Baseline  types.Funds            `json:"baseline"`
	Accounted map[string]types.Funds `json:"accounted"`
	Dosed     bool                   `json:"dosed"`
	Destroyed bool                   `json:"destroyed"`
	TakenAt   time.Time              `json:"taken_at"`
}

// AccountedTotal returns the sum of all recorded entitlements.
func (s *State) AccountedTotal() types.Funds {
	var total types.Funds
	for _, amount := range s.Accounted {
		total = total.Add(amount)
	}
	return total
}
