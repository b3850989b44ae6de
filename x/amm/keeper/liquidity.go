package keeper

import (
	"strconv"

	"cosmossdk.io/math"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

// depositPlan is the validated outcome of a proportional deposit: the amounts
// actually taken, the excess returned to the caller, and the shares minted.
type depositPlan struct {
	finalA  math.Int
	finalB  math.Int
	refundA math.Int
	refundB math.Int
	minted  math.Int
}

// planDeposit validates a deposit against the pool ratio. The caller's stated
// ratio must sit within the tolerance band; within the band the deposit is
// trimmed to the exact pool ratio and the excess refunded rather than
// deposited. Shares are floor(finalA * totalShares / reserveA), multiplied
// before dividing.
func (k *Keeper) planDeposit(pool *types.Pool, amountA, amountB math.Int, toleranceBps uint32) (depositPlan, error) {
	if amountA.IsNil() || !amountA.IsPositive() || amountB.IsNil() || !amountB.IsPositive() {
		return depositPlan{}, types.ErrInvalidAmount.Wrap("deposit amounts must be positive")
	}
	if toleranceBps == 0 {
		toleranceBps = k.params.DefaultRatioToleranceBps
	}
	if pool.ReserveA.IsZero() || pool.ReserveB.IsZero() || pool.TotalShares.IsZero() {
		return depositPlan{}, types.ErrInvalidPoolState.Wrap("pool has no reserves")
	}

	// Ratio band: |amountA/amountB - reserveA/reserveB| relative to the pool
	// ratio, in bps, computed cross-multiplied to stay in integers.
	crossA, err := SafeMul(amountA, pool.ReserveB)
	if err != nil {
		return depositPlan{}, err
	}
	crossB, err := SafeMul(amountB, pool.ReserveA)
	if err != nil {
		return depositPlan{}, err
	}
	diff := crossA.Sub(crossB)
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	deviationBps, err := SafeMulDiv(diff, math.NewInt(types.BpsDenominator), crossB)
	if err != nil {
		return depositPlan{}, err
	}
	if deviationBps.GT(math.NewInt(int64(toleranceBps))) {
		return depositPlan{}, types.ErrExcessiveSlippage.Wrapf(
			"deposit ratio deviates %s bps from pool ratio, tolerance %d bps", deviationBps, toleranceBps)
	}

	// Trim to the pool ratio, refunding the excess side.
	finalA, finalB := amountA, amountB
	optimalB, err := SafeMulDiv(amountA, pool.ReserveB, pool.ReserveA)
	if err != nil {
		return depositPlan{}, err
	}
	if optimalB.LTE(amountB) {
		finalB = optimalB
	} else {
		optimalA, err := SafeMulDiv(amountB, pool.ReserveA, pool.ReserveB)
		if err != nil {
			return depositPlan{}, err
		}
		finalA = optimalA
	}
	if !finalA.IsPositive() || !finalB.IsPositive() {
		return depositPlan{}, types.ErrInvalidAmount.Wrap("deposit too small for pool ratio")
	}

	minted, err := SafeMulDiv(finalA, pool.TotalShares, pool.ReserveA)
	if err != nil {
		return depositPlan{}, err
	}
	if minted.IsZero() {
		return depositPlan{}, types.ErrInsufficientLiquidity.Wrap("deposit too small to mint shares")
	}

	return depositPlan{
		finalA:  finalA,
		finalB:  finalB,
		refundA: amountA.Sub(finalA),
		refundB: amountB.Sub(finalB),
		minted:  minted,
	}, nil
}

// applyDeposit commits a planned deposit to the given pool/position copies.
// A new position snapshots the entry ratio; an existing one has its fee debt
// extended so the freshly minted shares earn nothing retroactively.
func applyDeposit(pool *types.Pool, pos *types.Position, owner string, plan depositPlan) (*types.Position, error) {
	newReserveA, err := SafeAdd(pool.ReserveA, plan.finalA)
	if err != nil {
		return nil, err
	}
	newReserveB, err := SafeAdd(pool.ReserveB, plan.finalB)
	if err != nil {
		return nil, err
	}
	newTotal, err := SafeAdd(pool.TotalShares, plan.minted)
	if err != nil {
		return nil, err
	}
	pool.ReserveA = newReserveA
	pool.ReserveB = newReserveB
	pool.TotalShares = newTotal

	if pos == nil {
		entryRatio := math.LegacyNewDecFromInt(pool.ReserveA).Quo(math.LegacyNewDecFromInt(pool.ReserveB))
		pos = types.NewPosition(pool.ID, owner, plan.minted, entryRatio, plan.finalA, plan.finalB)
		// New shares start with their full lifetime entitlement as debt.
		debtA, err := accruedFee(plan.minted, pool.AccFeePerShareA)
		if err != nil {
			return nil, err
		}
		debtB, err := accruedFee(plan.minted, pool.AccFeePerShareB)
		if err != nil {
			return nil, err
		}
		pos.FeeDebtA = debtA
		pos.FeeDebtB = debtB
		return pos, nil
	}

	deltaDebtA, err := accruedFee(plan.minted, pool.AccFeePerShareA)
	if err != nil {
		return nil, err
	}
	deltaDebtB, err := accruedFee(plan.minted, pool.AccFeePerShareB)
	if err != nil {
		return nil, err
	}
	pos.Shares = pos.Shares.Add(plan.minted)
	pos.FeeDebtA = pos.FeeDebtA.Add(deltaDebtA)
	pos.FeeDebtB = pos.FeeDebtB.Add(deltaDebtB)
	pos.OriginalDepositA = pos.OriginalDepositA.Add(plan.finalA)
	pos.OriginalDepositB = pos.OriginalDepositB.Add(plan.finalB)
	return pos, nil
}

// AddLiquidity deposits into an existing pool at the current reserve ratio.
// Returns the shares minted and any refunded excess. Fails with
// ErrSlippageExceeded when fewer than minSharesOut shares would be minted.
func (k *Keeper) AddLiquidity(
	poolID uint64,
	owner string,
	amountA, amountB math.Int,
	minSharesOut math.Int,
	ratioToleranceBps uint32,
) (math.Int, math.Int, math.Int, error) {
	fail := func(err error) (math.Int, math.Int, math.Int, error) {
		return math.Int{}, math.Int{}, math.Int{}, err
	}

	if owner == "" || owner == types.SinkOwner {
		return fail(types.ErrUnauthorized.Wrap("invalid position owner"))
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return fail(err)
	}

	e.mu.Lock()
	plan, err := k.addLiquidityLocked(e, owner, amountA, amountB, minSharesOut, ratioToleranceBps)
	assetA, assetB := e.pool.AssetA, e.pool.AssetB
	e.mu.Unlock()
	if err != nil {
		return fail(err)
	}

	if err := k.hooks.AfterLiquidityChanged(poolID, owner, plan.finalA, plan.finalB, plan.minted, true); err != nil {
		k.logger.Error("liquidity hook failed", "pool_id", poolID, "owner", owner, "error", err)
	}
	if k.metrics != nil {
		id := strconv.FormatUint(poolID, 10)
		k.metrics.LiquidityAdded.WithLabelValues(id, assetA).Add(amountFloat(plan.finalA))
		k.metrics.LiquidityAdded.WithLabelValues(id, assetB).Add(amountFloat(plan.finalB))
	}
	k.logger.Info("liquidity added",
		"pool_id", poolID,
		"owner", owner,
		"amount_a", plan.finalA.String(),
		"amount_b", plan.finalB.String(),
		"shares", plan.minted.String(),
	)

	return plan.minted, plan.refundA, plan.refundB, nil
}

func (k *Keeper) addLiquidityLocked(
	e *poolEntry,
	owner string,
	amountA, amountB, minSharesOut math.Int,
	ratioToleranceBps uint32,
) (depositPlan, error) {
	if e.pool.Paused {
		return depositPlan{}, types.ErrPoolPaused.Wrapf("pool %d is paused", e.pool.ID)
	}

	pool := e.pool
	plan, err := k.planDeposit(&pool, amountA, amountB, ratioToleranceBps)
	if err != nil {
		return depositPlan{}, err
	}
	if !minSharesOut.IsNil() && plan.minted.LT(minSharesOut) {
		return depositPlan{}, types.ErrSlippageExceeded.Wrapf(
			"would mint %s shares, minimum %s", plan.minted, minSharesOut)
	}

	var posCopy *types.Position
	if existing, ok := e.positions[owner]; ok {
		posCopy = existing.Clone()
	}
	posCopy, err = applyDeposit(&pool, posCopy, owner, plan)
	if err != nil {
		return depositPlan{}, err
	}

	e.pool = pool
	e.positions[owner] = posCopy
	return plan, nil
}

// RemoveLiquidity burns shares for a pro-rata slice of the reserves. Pending
// fees are settled first and returned alongside the principal. Full removal
// destroys the position; partial removal recomputes the fee debt of the
// retained shares with ceiling division.
func (k *Keeper) RemoveLiquidity(
	poolID uint64,
	owner string,
	shares math.Int,
	minAmountA, minAmountB math.Int,
) (math.Int, math.Int, math.Int, math.Int, error) {
	fail := func(err error) (math.Int, math.Int, math.Int, math.Int, error) {
		return math.Int{}, math.Int{}, math.Int{}, math.Int{}, err
	}

	if owner == types.SinkOwner {
		return fail(types.ErrUnauthorized.Wrap("sink position is unredeemable"))
	}
	if shares.IsNil() || !shares.IsPositive() {
		return fail(types.ErrInvalidAmount.Wrap("shares to remove must be positive"))
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return fail(err)
	}

	e.mu.Lock()
	amountA, amountB, feeA, feeB, err := k.removeLiquidityLocked(e, owner, shares, minAmountA, minAmountB)
	assetA, assetB := e.pool.AssetA, e.pool.AssetB
	e.mu.Unlock()
	if err != nil {
		return fail(err)
	}

	if err := k.hooks.AfterLiquidityChanged(poolID, owner, amountA, amountB, shares, false); err != nil {
		k.logger.Error("liquidity hook failed", "pool_id", poolID, "owner", owner, "error", err)
	}
	if k.metrics != nil {
		id := strconv.FormatUint(poolID, 10)
		k.metrics.LiquidityRemoved.WithLabelValues(id, assetA).Add(amountFloat(amountA))
		k.metrics.LiquidityRemoved.WithLabelValues(id, assetB).Add(amountFloat(amountB))
	}
	k.logger.Info("liquidity removed",
		"pool_id", poolID,
		"owner", owner,
		"amount_a", amountA.String(),
		"amount_b", amountB.String(),
		"shares", shares.String(),
	)

	return amountA, amountB, feeA, feeB, nil
}

func (k *Keeper) removeLiquidityLocked(
	e *poolEntry,
	owner string,
	shares, minAmountA, minAmountB math.Int,
) (math.Int, math.Int, math.Int, math.Int, error) {
	fail := func(err error) (math.Int, math.Int, math.Int, math.Int, error) {
		return math.Int{}, math.Int{}, math.Int{}, math.Int{}, err
	}

	if e.pool.Paused {
		return fail(types.ErrPoolPaused.Wrapf("pool %d is paused", e.pool.ID))
	}
	pos, ok := e.positions[owner]
	if !ok {
		return fail(types.ErrPositionNotFound.Wrapf("no position for %s in pool %d", owner, e.pool.ID))
	}
	if pos.PoolID != e.pool.ID {
		return fail(types.ErrWrongPool.Wrapf("position belongs to pool %d, not %d", pos.PoolID, e.pool.ID))
	}
	if shares.GT(pos.Shares) {
		return fail(types.ErrInsufficientLiquidity.Wrapf("have %s shares, need %s", pos.Shares, shares))
	}

	pool := e.pool
	posCopy := pos.Clone()

	feeA, feeB, err := settleFees(&pool, posCopy)
	if err != nil {
		return fail(err)
	}

	amountA, err := SafeMulDiv(pool.ReserveA, shares, pool.TotalShares)
	if err != nil {
		return fail(err)
	}
	amountB, err := SafeMulDiv(pool.ReserveB, shares, pool.TotalShares)
	if err != nil {
		return fail(err)
	}
	if amountA.IsZero() || amountB.IsZero() {
		return fail(types.ErrInsufficientLiquidity.Wrap("withdrawal amounts too small"))
	}
	if !minAmountA.IsNil() && amountA.LT(minAmountA) {
		return fail(types.ErrSlippageExceeded.Wrapf("amount A %s below minimum %s", amountA, minAmountA))
	}
	if !minAmountB.IsNil() && amountB.LT(minAmountB) {
		return fail(types.ErrSlippageExceeded.Wrapf("amount B %s below minimum %s", amountB, minAmountB))
	}

	newReserveA, err := SafeSub(pool.ReserveA, amountA)
	if err != nil {
		return fail(err)
	}
	newReserveB, err := SafeSub(pool.ReserveB, amountB)
	if err != nil {
		return fail(err)
	}
	newTotal, err := SafeSub(pool.TotalShares, shares)
	if err != nil {
		return fail(err)
	}
	pool.ReserveA = newReserveA
	pool.ReserveB = newReserveB
	pool.TotalShares = newTotal

	posCopy.Shares = posCopy.Shares.Sub(shares)
	if posCopy.Shares.IsZero() {
		e.pool = pool
		delete(e.positions, owner)
		return amountA, amountB, feeA, feeB, nil
	}

	// Retained shares keep their fee entitlement; ceiling division so the
	// remainder is never credited twice.
	debtA, err := accruedFeeCeil(posCopy.Shares, pool.AccFeePerShareA)
	if err != nil {
		return fail(err)
	}
	debtB, err := accruedFeeCeil(posCopy.Shares, pool.AccFeePerShareB)
	if err != nil {
		return fail(err)
	}
	posCopy.FeeDebtA = debtA
	posCopy.FeeDebtB = debtB

	e.pool = pool
	e.positions[owner] = posCopy
	return amountA, amountB, feeA, feeB, nil
}

// CompoundFees claims the owner's pending fees and redeposits them in one
// atomic step. Fee amounts that cannot be redeposited proportionally (one
// side zero, or outside the ratio band) are returned as refunds instead.
func (k *Keeper) CompoundFees(
	poolID uint64,
	owner string,
	ratioToleranceBps uint32,
) (math.Int, math.Int, math.Int, error) {
	fail := func(err error) (math.Int, math.Int, math.Int, error) {
		return math.Int{}, math.Int{}, math.Int{}, err
	}

	if owner == "" || owner == types.SinkOwner {
		return fail(types.ErrUnauthorized.Wrap("invalid position owner"))
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return fail(err)
	}

	e.mu.Lock()
	minted, refundA, refundB, feeA, feeB, compounded, err := k.compoundFeesLocked(e, owner, ratioToleranceBps)
	e.mu.Unlock()
	if err != nil {
		return fail(err)
	}

	if err := k.hooks.AfterFeesClaimed(poolID, owner, feeA, feeB); err != nil {
		k.logger.Error("fee claim hook failed", "pool_id", poolID, "owner", owner, "error", err)
	}
	if compounded {
		depositA := feeA.Sub(refundA)
		depositB := feeB.Sub(refundB)
		if err := k.hooks.AfterLiquidityChanged(poolID, owner, depositA, depositB, minted, true); err != nil {
			k.logger.Error("liquidity hook failed", "pool_id", poolID, "owner", owner, "error", err)
		}
	}
	k.logger.Info("fees compounded",
		"pool_id", poolID,
		"owner", owner,
		"shares", minted.String(),
		"refund_a", refundA.String(),
		"refund_b", refundB.String(),
	)

	return minted, refundA, refundB, nil
}

func (k *Keeper) compoundFeesLocked(
	e *poolEntry,
	owner string,
	ratioToleranceBps uint32,
) (minted, refundA, refundB, feeA, feeB math.Int, compounded bool, err error) {
	zero := math.ZeroInt()
	if e.pool.Paused {
		return zero, zero, zero, zero, zero, false, types.ErrPoolPaused.Wrapf("pool %d is paused", e.pool.ID)
	}
	pos, ok := e.positions[owner]
	if !ok {
		return zero, zero, zero, zero, zero, false, types.ErrPositionNotFound.Wrapf("no position for %s in pool %d", owner, e.pool.ID)
	}

	pool := e.pool
	posCopy := pos.Clone()

	feeA, feeB, err = settleFees(&pool, posCopy)
	if err != nil {
		return zero, zero, zero, zero, zero, false, err
	}
	if feeA.IsZero() && feeB.IsZero() {
		e.positions[owner] = posCopy
		return zero, zero, zero, zero, zero, false, nil
	}

	plan, planErr := k.planDeposit(&pool, feeA, feeB, ratioToleranceBps)
	if planErr != nil {
		// Claim settled, nothing redepositable: pay out instead.
		e.pool = pool
		e.positions[owner] = posCopy
		return zero, feeA, feeB, feeA, feeB, false, nil
	}

	posCopy, err = applyDeposit(&pool, posCopy, owner, plan)
	if err != nil {
		return zero, zero, zero, zero, zero, false, err
	}

	e.pool = pool
	e.positions[owner] = posCopy
	return plan.minted, plan.refundA, plan.refundB, feeA, feeB, true, nil
}
