package keeper

import (
	"cosmossdk.io/math"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

// TransferPosition moves shares from one owner to another atomically. The
// sender's pending fees are settled and returned first, so accrued earnings
// never travel with the shares; the recipient's fee debt is extended with
// ceiling division so the received shares claim nothing retroactively.
// Transferring the full balance destroys the sender's position.
func (k *Keeper) TransferPosition(
	poolID uint64,
	from, to string,
	shares math.Int,
) (math.Int, math.Int, error) {
	fail := func(err error) (math.Int, math.Int, error) {
		return math.Int{}, math.Int{}, err
	}

	if from == types.SinkOwner || to == types.SinkOwner {
		return fail(types.ErrUnauthorized.Wrap("sink position cannot take part in transfers"))
	}
	if to == "" || to == from {
		return fail(types.ErrUnauthorized.Wrap("invalid transfer recipient"))
	}
	if shares.IsNil() || !shares.IsPositive() {
		return fail(types.ErrInvalidAmount.Wrap("shares to transfer must be positive"))
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return fail(err)
	}

	e.mu.Lock()
	feeA, feeB, err := k.transferPositionLocked(e, from, to, shares)
	e.mu.Unlock()
	if err != nil {
		return fail(err)
	}

	if err := k.hooks.AfterFeesClaimed(poolID, from, feeA, feeB); err != nil {
		k.logger.Error("fee claim hook failed", "pool_id", poolID, "owner", from, "error", err)
	}
	k.logger.Info("position transferred",
		"pool_id", poolID,
		"from", from,
		"to", to,
		"shares", shares.String(),
	)
	return feeA, feeB, nil
}

func (k *Keeper) transferPositionLocked(e *poolEntry, from, to string, shares math.Int) (math.Int, math.Int, error) {
	fail := func(err error) (math.Int, math.Int, error) {
		return math.Int{}, math.Int{}, err
	}

	src, ok := e.positions[from]
	if !ok {
		return fail(types.ErrPositionNotFound.Wrapf("no position for %s in pool %d", from, e.pool.ID))
	}
	if shares.GT(src.Shares) {
		return fail(types.ErrInsufficientLiquidity.Wrapf("have %s shares, need %s", src.Shares, shares))
	}

	pool := e.pool
	srcCopy := src.Clone()

	feeA, feeB, err := settleFees(&pool, srcCopy)
	if err != nil {
		return fail(err)
	}

	var dstCopy *types.Position
	if existing, ok := e.positions[to]; ok {
		dstCopy = existing.Clone()
	} else {
		entryRatio := math.LegacyNewDecFromInt(pool.ReserveA).Quo(math.LegacyNewDecFromInt(pool.ReserveB))
		dstCopy = types.NewPosition(pool.ID, to, math.ZeroInt(), entryRatio, math.ZeroInt(), math.ZeroInt())
	}

	deltaDebtA, err := accruedFeeCeil(shares, pool.AccFeePerShareA)
	if err != nil {
		return fail(err)
	}
	deltaDebtB, err := accruedFeeCeil(shares, pool.AccFeePerShareB)
	if err != nil {
		return fail(err)
	}
	dstCopy.Shares = dstCopy.Shares.Add(shares)
	dstCopy.FeeDebtA = dstCopy.FeeDebtA.Add(deltaDebtA)
	dstCopy.FeeDebtB = dstCopy.FeeDebtB.Add(deltaDebtB)

	srcCopy.Shares = srcCopy.Shares.Sub(shares)
	if srcCopy.Shares.IsZero() {
		delete(e.positions, from)
	} else {
		debtA, err := accruedFeeCeil(srcCopy.Shares, pool.AccFeePerShareA)
		if err != nil {
			return fail(err)
		}
		debtB, err := accruedFeeCeil(srcCopy.Shares, pool.AccFeePerShareB)
		if err != nil {
			return fail(err)
		}
		srcCopy.FeeDebtA = debtA
		srcCopy.FeeDebtB = debtB
		e.positions[from] = srcCopy
	}
	e.positions[to] = dstCopy
	return feeA, feeB, nil
}
