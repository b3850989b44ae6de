package keeper

import (
	"time"

	"cosmossdk.io/math"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

// CreatePool creates a liquidity pool atomically with its first deposit.
// Initial shares are the geometric mean floor(sqrt(amountA * amountB));
// MinimumShares of them are assigned to the permanently locked sink position
// and the remainder to the creator. Assets are stored in lexicographic order.
func (k *Keeper) CreatePool(
	creator string,
	assetA, assetB string,
	amountA, amountB math.Int,
	fee types.FeeConfig,
	curveType types.CurveType,
	curveParams types.CurveParams,
	now time.Time,
) (types.PoolView, types.PositionView, error) {
	var noPool types.PoolView
	var noPos types.PositionView

	// 1. Input validation
	if creator == "" || creator == types.SinkOwner {
		return noPool, noPos, types.ErrUnauthorized.Wrap("invalid pool creator")
	}
	if assetA == "" || assetB == "" {
		return noPool, noPos, types.ErrInvalidAsset.Wrap("asset denominations cannot be empty")
	}
	if assetA == assetB {
		return noPool, noPos, types.ErrInvalidAsset.Wrap("cannot create pool with identical assets")
	}
	if amountA.IsNil() || !amountA.IsPositive() || amountB.IsNil() || !amountB.IsPositive() {
		return noPool, noPos, types.ErrInvalidAmount.Wrap("both initial deposits must be positive")
	}
	if err := curveType.Validate(); err != nil {
		return noPool, noPos, err
	}
	if fee == (types.FeeConfig{}) {
		fee = k.params.DefaultFee
	}
	if err := fee.Validate(); err != nil {
		return noPool, noPos, err
	}

	// 2. Normalize curve parameters
	switch curveType {
	case types.CurveStable:
		if curveParams.Amplification < types.MinAmplification || curveParams.Amplification > types.MaxAmplification {
			return noPool, noPos, types.ErrInvalidAmplification.Wrapf(
				"amplification %d outside [%d, %d]",
				curveParams.Amplification, types.MinAmplification, types.MaxAmplification,
			)
		}
		// Pools start without a ramp regardless of what the caller passed.
		curveParams = types.CurveParams{Amplification: curveParams.Amplification}
	default:
		curveParams = types.CurveParams{}
	}

	// 3. Consistent asset ordering
	if _, _, swapped := types.OrderAssets(assetA, assetB); swapped {
		assetA, assetB = assetB, assetA
		amountA, amountB = amountB, amountA
	}

	// 4. Initial share mint: floor(sqrt(amountA * amountB))
	product, err := SafeMul(amountA, amountB)
	if err != nil {
		return noPool, noPos, err
	}
	initialShares, err := IntSqrt(product)
	if err != nil {
		return noPool, noPos, err
	}
	if initialShares.LT(k.params.MinInitialLiquidity) || initialShares.LTE(math.NewInt(types.MinimumShares)) {
		return noPool, noPos, types.ErrInsufficientLiquidity.Wrapf(
			"initial liquidity too low: %s shares", initialShares)
	}
	creatorShares := initialShares.Sub(math.NewInt(types.MinimumShares))

	pairKey := types.PairKey(assetA, assetB, fee.FeeBps)

	k.mu.Lock()

	// 5. Duplicate pair check
	if _, exists := k.byPair[pairKey]; exists {
		k.mu.Unlock()
		return noPool, noPos, types.ErrPoolAlreadyExists.Wrapf(
			"pool already exists for pair %s/%s tier %d", assetA, assetB, fee.FeeBps)
	}

	poolID := k.nextPoolID

	pool := types.Pool{
		ID:              poolID,
		AssetA:          assetA,
		AssetB:          assetB,
		FeeTierBps:      fee.FeeBps,
		Fee:             fee,
		Curve:           curveType,
		CurveParams:     curveParams,
		ReserveA:        amountA,
		ReserveB:        amountB,
		TotalShares:     initialShares,
		AccFeePerShareA: math.ZeroInt(),
		AccFeePerShareB: math.ZeroInt(),
		ProtocolFeesA:   math.ZeroInt(),
		ProtocolFeesB:   math.ZeroInt(),
		CreatorFeesA:    math.ZeroInt(),
		CreatorFeesB:    math.ZeroInt(),
		Creator:         creator,
	}
	if err := pool.Validate(); err != nil {
		k.mu.Unlock()
		return noPool, noPos, err
	}

	entryRatio := math.LegacyNewDecFromInt(amountA).Quo(math.LegacyNewDecFromInt(amountB))
	creatorPos := types.NewPosition(poolID, creator, creatorShares, entryRatio, amountA, amountB)
	sinkPos := types.NewPosition(poolID, types.SinkOwner, math.NewInt(types.MinimumShares), entryRatio, math.ZeroInt(), math.ZeroInt())

	k.pools[poolID] = &poolEntry{
		pool: pool,
		positions: map[string]*types.Position{
			creator:         creatorPos,
			types.SinkOwner: sinkPos,
		},
	}
	k.byPair[pairKey] = poolID
	k.nextPoolID++
	poolCount := len(k.pools)
	k.mu.Unlock()

	if err := k.hooks.AfterPoolCreated(poolID, assetA, assetB, creator); err != nil {
		k.logger.Error("pool creation hook failed", "pool_id", poolID, "error", err)
	}

	if k.metrics != nil {
		k.metrics.PoolsTotal.Set(float64(poolCount))
	}
	k.logger.Info("pool created",
		"pool_id", poolID,
		"asset_a", assetA,
		"asset_b", assetB,
		"curve", curveType.String(),
		"fee_bps", fee.FeeBps,
		"initial_shares", initialShares.String(),
		"creator", creator,
	)

	creatorView, err := positionView(pool, creatorPos)
	if err != nil {
		return noPool, noPos, err
	}
	return poolView(pool), creatorView, nil
}
