package types

import (
	"cosmossdk.io/math"
)

// Position is one owner's claim on a pool. PoolID is a lookup key only; a
// position never holds its pool. FeeDebtA/B record the fee entitlement already
// settled to the owner (in token units), so the pending claim is
// shares * accFeePerShare / FeePrecision - feeDebt.
type Position struct {
	PoolID uint64
	Owner  string

	Shares   math.Int
	FeeDebtA math.Int
	FeeDebtB math.Int

	// Creation snapshot, used only for impermanent-loss reporting.
	EntryReserveRatio math.LegacyDec
	OriginalDepositA  math.Int
	OriginalDepositB  math.Int
}

// NewPosition creates a position with zeroed fee debts.
func NewPosition(poolID uint64, owner string, shares math.Int, entryRatio math.LegacyDec, depositA, depositB math.Int) *Position {
	return &Position{
		PoolID:            poolID,
		Owner:             owner,
		Shares:            shares,
		FeeDebtA:          math.ZeroInt(),
		FeeDebtB:          math.ZeroInt(),
		EntryReserveRatio: entryRatio,
		OriginalDepositA:  depositA,
		OriginalDepositB:  depositB,
	}
}

// Clone returns an independent copy of the position.
func (p *Position) Clone() *Position {
	cp := *p
	return &cp
}

// IsSink reports whether the position is the permanently locked minimum-shares
// sink created with the pool.
func (p *Position) IsSink() bool {
	return p.Owner == SinkOwner
}

// Validate checks structural position invariants.
func (p *Position) Validate() error {
	if p.Owner == "" {
		return ErrInvalidPoolState.Wrap("position owner cannot be empty")
	}
	if p.Shares.IsNil() || p.Shares.IsNegative() {
		return ErrInvalidPoolState.Wrap("negative position shares")
	}
	if p.FeeDebtA.IsNegative() || p.FeeDebtB.IsNegative() {
		return ErrInvalidPoolState.Wrap("negative fee debt")
	}
	return nil
}
