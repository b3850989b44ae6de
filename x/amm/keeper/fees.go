package keeper

import (
	"strconv"

	"cosmossdk.io/math"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

// Fee-accrual ledger. Swaps push the LP fee portion into the pool's
// per-share accumulators; each position carries a fee debt recording the
// entitlement already settled to its owner. The pending claim is
//
//	pending = floor(shares * accFeePerShare / FeePrecision) - feeDebt
//
// and settling sets the debt to the exact floored entitlement, so a repeated
// claim with no intervening swap yields zero.

// accruedFee returns floor(shares * acc / FeePrecision), the lifetime fee
// entitlement of a share quantity.
func accruedFee(shares, acc math.Int) (math.Int, error) {
	return SafeMulDiv(shares, acc, types.FeePrecision)
}

// accruedFeeCeil is the ceiling-division variant used when recomputing the
// debt of retained shares on partial removal, so the remainder is never
// credited fees twice.
func accruedFeeCeil(shares, acc math.Int) (math.Int, error) {
	return SafeMulDivCeil(shares, acc, types.FeePrecision)
}

// pendingFees computes the position's unclaimed fee amounts.
func pendingFees(pool *types.Pool, pos *types.Position) (math.Int, math.Int, error) {
	entitledA, err := accruedFee(pos.Shares, pool.AccFeePerShareA)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	entitledB, err := accruedFee(pos.Shares, pool.AccFeePerShareB)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	pendingA := entitledA.Sub(pos.FeeDebtA)
	if pendingA.IsNegative() {
		pendingA = math.ZeroInt()
	}
	pendingB := entitledB.Sub(pos.FeeDebtB)
	if pendingB.IsNegative() {
		pendingB = math.ZeroInt()
	}
	return pendingA, pendingB, nil
}

// settleFees pays out the pending claim and pins the debts to the exact
// current entitlement. Mutates pos.
func settleFees(pool *types.Pool, pos *types.Position) (math.Int, math.Int, error) {
	pendingA, pendingB, err := pendingFees(pool, pos)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	entitledA, err := accruedFee(pos.Shares, pool.AccFeePerShareA)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	entitledB, err := accruedFee(pos.Shares, pool.AccFeePerShareB)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	pos.FeeDebtA = entitledA
	pos.FeeDebtB = entitledB
	return pendingA, pendingB, nil
}

// ClaimFees settles the owner's pending fee claim and returns the amounts
// paid out. Claims remain permitted while the pool is paused.
func (k *Keeper) ClaimFees(poolID uint64, owner string) (math.Int, math.Int, error) {
	e, err := k.getEntry(poolID)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}

	e.mu.Lock()
	feeA, feeB, err := k.claimFeesLocked(e, owner)
	assetA, assetB := e.pool.AssetA, e.pool.AssetB
	e.mu.Unlock()
	if err != nil {
		return math.Int{}, math.Int{}, err
	}

	if err := k.hooks.AfterFeesClaimed(poolID, owner, feeA, feeB); err != nil {
		k.logger.Error("fee claim hook failed", "pool_id", poolID, "owner", owner, "error", err)
	}

	if k.metrics != nil && (feeA.IsPositive() || feeB.IsPositive()) {
		id := strconv.FormatUint(poolID, 10)
		k.metrics.FeesClaimed.WithLabelValues(id, assetA).Add(amountFloat(feeA))
		k.metrics.FeesClaimed.WithLabelValues(id, assetB).Add(amountFloat(feeB))
	}
	k.logger.Debug("fees claimed", "pool_id", poolID, "owner", owner, "fee_a", feeA.String(), "fee_b", feeB.String())

	return feeA, feeB, nil
}

// claimFeesLocked settles a position's fees under the entry lock.
func (k *Keeper) claimFeesLocked(e *poolEntry, owner string) (math.Int, math.Int, error) {
	if owner == types.SinkOwner {
		return math.Int{}, math.Int{}, types.ErrUnauthorized.Wrap("sink position is unclaimable")
	}
	pos, ok := e.positions[owner]
	if !ok {
		return math.Int{}, math.Int{}, types.ErrPositionNotFound.Wrapf("no position for %s in pool %d", owner, e.pool.ID)
	}

	posCopy := pos.Clone()
	feeA, feeB, err := settleFees(&e.pool, posCopy)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	e.positions[owner] = posCopy
	return feeA, feeB, nil
}

// WithdrawProtocolFees drains the pool's protocol fee buckets. Admin-gated.
func (k *Keeper) WithdrawProtocolFees(cap Capability, poolID uint64) (math.Int, math.Int, error) {
	if err := k.authorize(cap); err != nil {
		return math.Int{}, math.Int{}, err
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	amountA, amountB := e.pool.ProtocolFeesA, e.pool.ProtocolFeesB
	e.pool.ProtocolFeesA = math.ZeroInt()
	e.pool.ProtocolFeesB = math.ZeroInt()

	k.logger.Info("protocol fees withdrawn", "pool_id", poolID, "amount_a", amountA.String(), "amount_b", amountB.String())
	return amountA, amountB, nil
}

// WithdrawCreatorFees drains the pool's creator fee buckets. Only the pool
// creator may withdraw them.
func (k *Keeper) WithdrawCreatorFees(poolID uint64, caller string) (math.Int, math.Int, error) {
	e, err := k.getEntry(poolID)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.pool.Creator {
		return math.Int{}, math.Int{}, types.ErrUnauthorized.Wrapf("caller %s is not the pool creator", caller)
	}
	amountA, amountB := e.pool.CreatorFeesA, e.pool.CreatorFeesB
	e.pool.CreatorFeesA = math.ZeroInt()
	e.pool.CreatorFeesB = math.ZeroInt()

	k.logger.Info("creator fees withdrawn", "pool_id", poolID, "amount_a", amountA.String(), "amount_b", amountB.String())
	return amountA, amountB, nil
}
