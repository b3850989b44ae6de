package keeper

import (
	"cosmossdk.io/math"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

// Read-only views for the registry and analytics collaborators. All derived
// quantities (position value, pending fees, impermanent loss) are computed on
// demand and never persisted.

// GetPoolView returns a snapshot of the pool state.
func (k *Keeper) GetPoolView(poolID uint64) (types.PoolView, error) {
	e, err := k.getEntry(poolID)
	if err != nil {
		return types.PoolView{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return poolView(e.pool), nil
}

// GetPositionView returns the derived state of one position: pro-rata value,
// pending fees, and impermanent loss versus holding the original deposit.
func (k *Keeper) GetPositionView(poolID uint64, owner string) (types.PositionView, error) {
	e, err := k.getEntry(poolID)
	if err != nil {
		return types.PositionView{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.positions[owner]
	if !ok {
		return types.PositionView{}, types.ErrPositionNotFound.Wrapf("no position for %s in pool %d", owner, poolID)
	}
	return positionView(e.pool, pos)
}

func poolView(p types.Pool) types.PoolView {
	return types.PoolView{
		ID:              p.ID,
		AssetA:          p.AssetA,
		AssetB:          p.AssetB,
		FeeTierBps:      p.FeeTierBps,
		Fee:             p.Fee,
		Curve:           p.Curve,
		CurveParams:     p.CurveParams,
		ReserveA:        p.ReserveA,
		ReserveB:        p.ReserveB,
		TotalShares:     p.TotalShares,
		AccFeePerShareA: p.AccFeePerShareA,
		AccFeePerShareB: p.AccFeePerShareB,
		ProtocolFeesA:   p.ProtocolFeesA,
		ProtocolFeesB:   p.ProtocolFeesB,
		CreatorFeesA:    p.CreatorFeesA,
		CreatorFeesB:    p.CreatorFeesB,
		Creator:         p.Creator,
		Paused:          p.Paused,
	}
}

func positionView(pool types.Pool, pos *types.Position) (types.PositionView, error) {
	valueA, err := SafeMulDiv(pool.ReserveA, pos.Shares, pool.TotalShares)
	if err != nil {
		return types.PositionView{}, err
	}
	valueB, err := SafeMulDiv(pool.ReserveB, pos.Shares, pool.TotalShares)
	if err != nil {
		return types.PositionView{}, err
	}
	pendingA, pendingB, err := pendingFees(&pool, pos)
	if err != nil {
		return types.PositionView{}, err
	}

	return types.PositionView{
		PoolID:             pos.PoolID,
		Owner:              pos.Owner,
		Shares:             pos.Shares,
		ValueA:             valueA,
		ValueB:             valueB,
		PendingFeeA:        pendingA,
		PendingFeeB:        pendingB,
		ImpermanentLossBps: impermanentLossBps(pool, pos, valueA, valueB, pendingA, pendingB),
		OriginalDepositA:   pos.OriginalDepositA,
		OriginalDepositB:   pos.OriginalDepositB,
	}, nil
}

// impermanentLossBps compares the value of holding the original deposit
// against the current position value (accrued fees included), both priced at
// the pool's current reserve ratio with asset B as numeraire. Positive is a
// loss, negative a gain.
func impermanentLossBps(pool types.Pool, pos *types.Position, valueA, valueB, pendingA, pendingB math.Int) int64 {
	if pool.ReserveA.IsZero() || pool.ReserveB.IsZero() {
		return 0
	}
	// Price of one unit of A in B units.
	priceA := math.LegacyNewDecFromInt(pool.ReserveB).Quo(math.LegacyNewDecFromInt(pool.ReserveA))

	hold := math.LegacyNewDecFromInt(pos.OriginalDepositA).Mul(priceA).
		Add(math.LegacyNewDecFromInt(pos.OriginalDepositB))
	if hold.IsZero() {
		return 0
	}
	current := math.LegacyNewDecFromInt(valueA.Add(pendingA)).Mul(priceA).
		Add(math.LegacyNewDecFromInt(valueB.Add(pendingB)))

	lossBps := hold.Sub(current).
		Mul(math.LegacyNewDec(types.BpsDenominator)).
		Quo(hold)
	return lossBps.TruncateInt64()
}
