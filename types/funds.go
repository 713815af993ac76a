// Package types provides common types used across Vault.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FundsDecimals is the number of decimal places in the native asset:
// 1 coin = 10^9 base units.
const FundsDecimals = 9

// baseUnitsPerCoin is 10^FundsDecimals.
const baseUnitsPerCoin int64 = 1_000_000_000

// Funds represents an amount of the vault's native asset in base units.
// All arithmetic is integer-only — no floating point.
//
// Examples:
//   - Coin(1)     = 1.0 coins (1_000_000_000 base units)
//   - Milli(500)  = 0.5 coins
//   - Nano(1)     = the smallest representable amount
type Funds struct {
	Amount int64 `json:"amount"` // Base units (10^-9 coins)
}

// Unit constructors

// Nano creates a Funds value from base units directly.
func Nano(n int64) Funds { return Funds{Amount: n} }

// Micro creates a Funds value from millionths of a coin.
func Micro(n int64) Funds { return Funds{Amount: n * 1_000} }

// Milli creates a Funds value from thousandths of a coin.
func Milli(n int64) Funds { return Funds{Amount: n * 1_000_000} }

// Coin creates a Funds value from whole coins.
func Coin(n int64) Funds { return Funds{Amount: n * baseUnitsPerCoin} }

// Zero returns the zero Funds value.
func Zero() Funds { return Funds{} }

// Arithmetic operations

// Add adds two Funds values.
func (f Funds) Add(other Funds) Funds {
	return Funds{Amount: f.Amount + other.Amount}
}

// Subtract subtracts another Funds value.
func (f Funds) Subtract(other Funds) Funds {
	return Funds{Amount: f.Amount - other.Amount}
}

// Multiply multiplies the Funds by a quantity.
func (f Funds) Multiply(qty int64) Funds {
	return Funds{Amount: f.Amount * qty}
}

// Negate returns the negative of the Funds value.
func (f Funds) Negate() Funds {
	return Funds{Amount: -f.Amount}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (f Funds) IsZero() bool { return f.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (f Funds) IsPositive() bool { return f.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (f Funds) IsNegative() bool { return f.Amount < 0 }

// Equal returns true if both Funds values are equal.
func (f Funds) Equal(other Funds) bool { return f.Amount == other.Amount }

// LessThan returns true if this Funds is less than other.
func (f Funds) LessThan(other Funds) bool { return f.Amount < other.Amount }

// GreaterThan returns true if this Funds is greater than other.
func (f Funds) GreaterThan(other Funds) bool { return f.Amount > other.Amount }

// AtLeast returns true if this Funds is greater than or equal to other.
func (f Funds) AtLeast(other Funds) bool { return f.Amount >= other.Amount }

// Formatting methods

// FormatCoins returns the amount in whole coins with trailing zeros in the
// fractional part trimmed: "20.5" for Milli(20500), "1" for Coin(1).
func (f Funds) FormatCoins() string {
	isNegative := f.Amount < 0
	abs := f.Amount
	if isNegative {
		abs = -abs
	}

	major := abs / baseUnitsPerCoin
	minor := abs % baseUnitsPerCoin

	var result string
	if minor == 0 {
		result = fmt.Sprintf("%d", major)
	} else {
		frac := strings.TrimRight(fmt.Sprintf("%09d", minor), "0")
		result = fmt.Sprintf("%d.%s", major, frac)
	}

	if isNegative {
		return "-" + result
	}
	return result
}

// String returns a human-readable string: "20.5 coins", "1 coin".
func (f Funds) String() string {
	if f.Amount == baseUnitsPerCoin {
		return f.FormatCoins() + " coin"
	}
	return f.FormatCoins() + " coins"
}

// MarshalJSON implements json.Marshaler.
func (f Funds) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount  int64  `json:"amount"`
		Display string `json:"display"`
	}{
		Amount:  f.Amount,
		Display: f.FormatCoins(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. It accepts both the object form
// produced by MarshalJSON and a bare integer of base units.
func (f *Funds) UnmarshalJSON(data []byte) error {
	var obj struct {
		Amount int64 `json:"amount"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		f.Amount = obj.Amount
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("types: cannot unmarshal %s into Funds", data)
	}
	f.Amount = n
	return nil
}

// SumFunds calculates the sum of multiple Funds values.
func SumFunds(values ...Funds) Funds {
	var result Funds
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
