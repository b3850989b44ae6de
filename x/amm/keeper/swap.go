package keeper

import (
	"strconv"
	"time"

	"cosmossdk.io/math"

	"github.com/meridianlabs/ammcore/x/amm/curve"
	"github.com/meridianlabs/ammcore/x/amm/types"
)

// quoteSwap prices a swap against the given pool state without mutating it.
// The fee is taken on the input side and split into the LP, protocol, and
// creator portions; protocol and creator portions are floored and the LP
// portion absorbs the remainder.
func quoteSwap(pool *types.Pool, direction types.SwapDirection, amountIn math.Int, now time.Time) (types.SwapQuote, error) {
	var quote types.SwapQuote

	if err := direction.Validate(); err != nil {
		return quote, err
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return quote, types.ErrInvalidAmount.Wrap("swap input must be positive")
	}

	reserveIn, reserveOut := pool.ReserveA, pool.ReserveB
	if direction == types.DirectionBToA {
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return quote, types.ErrInsufficientLiquidity.Wrap("pool has no reserves")
	}

	var (
		out math.Int
		err error
	)
	if pool.IsStable() {
		out, err = curve.StableOut(reserveIn, reserveOut, amountIn, pool.Fee.FeeBps, pool.EffectiveAmplification(now))
	} else {
		out, err = curve.ConstantProductOut(reserveIn, reserveOut, amountIn, pool.Fee.FeeBps)
	}
	if err != nil {
		return quote, err
	}
	if !out.IsPositive() {
		return quote, types.ErrInsufficientLiquidity.Wrap("swap output rounds to zero")
	}
	if out.GTE(reserveOut) {
		return quote, types.ErrInsufficientLiquidity.Wrapf(
			"output %s would drain reserve %s", out, reserveOut)
	}

	netIn := curve.NetAmountIn(amountIn, pool.Fee.FeeBps)
	feeAmount := amountIn.Sub(netIn)

	protocolFee, err := SafeMulDiv(feeAmount, math.NewInt(int64(pool.Fee.ProtocolFeeShareBps)), math.NewInt(types.BpsDenominator))
	if err != nil {
		return quote, err
	}
	creatorFee, err := SafeMulDiv(feeAmount, math.NewInt(int64(pool.Fee.CreatorFeeShareBps)), math.NewInt(types.BpsDenominator))
	if err != nil {
		return quote, err
	}
	lpFee := feeAmount.Sub(protocolFee).Sub(creatorFee)

	newReserveIn := reserveIn.Add(netIn)
	newReserveOut := reserveOut.Sub(out)
	spotAfter := math.LegacyNewDecFromInt(newReserveIn).Quo(math.LegacyNewDecFromInt(newReserveOut))

	return types.SwapQuote{
		Direction:      direction,
		AmountIn:       amountIn,
		AmountOut:      out,
		FeeAmount:      feeAmount,
		LpFee:          lpFee,
		ProtocolFee:    protocolFee,
		CreatorFee:     creatorFee,
		SpotPriceAfter: spotAfter,
	}, nil
}

// Swap executes a swap against the pool. The net input (input minus fee)
// enters the reserve and the output leaves it; the LP fee portion is pushed
// into the input-side per-share accumulator and the protocol/creator portions
// into their buckets, so fees never distort the priced reserves.
func (k *Keeper) Swap(
	poolID uint64,
	trader string,
	direction types.SwapDirection,
	amountIn math.Int,
	minAmountOut math.Int,
	maxPrice *math.LegacyDec,
	deadline time.Time,
	now time.Time,
) (types.SwapQuote, error) {
	var noQuote types.SwapQuote

	if trader == "" {
		return noQuote, types.ErrUnauthorized.Wrap("trader cannot be empty")
	}
	if !deadline.IsZero() && now.After(deadline) {
		return noQuote, types.ErrDeadlineExceeded.Wrapf(
			"deadline %s passed at %s", deadline.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return noQuote, err
	}

	e.mu.Lock()
	quote, err := k.swapLocked(e, direction, amountIn, minAmountOut, maxPrice, now)
	assetA, assetB := e.pool.AssetA, e.pool.AssetB
	e.mu.Unlock()

	id := strconv.FormatUint(poolID, 10)
	if err != nil {
		if k.metrics != nil {
			k.metrics.SwapsTotal.WithLabelValues(id, direction.String(), "failed").Inc()
		}
		return noQuote, err
	}

	if err := k.hooks.AfterSwap(poolID, trader, direction, amountIn, quote.AmountOut, quote.FeeAmount); err != nil {
		k.logger.Error("swap hook failed", "pool_id", poolID, "trader", trader, "error", err)
	}
	if k.metrics != nil {
		assetIn, assetOut := assetA, assetB
		if direction == types.DirectionBToA {
			assetIn, assetOut = assetB, assetA
		}
		k.metrics.SwapsTotal.WithLabelValues(id, direction.String(), "success").Inc()
		k.metrics.SwapVolume.WithLabelValues(id, assetIn).Add(amountFloat(amountIn))
		k.metrics.SwapVolume.WithLabelValues(id, assetOut).Add(amountFloat(quote.AmountOut))
		k.metrics.SwapFeesCollected.WithLabelValues(id, assetIn).Add(amountFloat(quote.FeeAmount))
	}
	k.logger.Info("swap executed",
		"pool_id", poolID,
		"trader", trader,
		"direction", direction.String(),
		"amount_in", amountIn.String(),
		"amount_out", quote.AmountOut.String(),
		"fee", quote.FeeAmount.String(),
	)

	return quote, nil
}

func (k *Keeper) swapLocked(
	e *poolEntry,
	direction types.SwapDirection,
	amountIn, minAmountOut math.Int,
	maxPrice *math.LegacyDec,
	now time.Time,
) (types.SwapQuote, error) {
	var noQuote types.SwapQuote

	if e.pool.Paused {
		return noQuote, types.ErrPoolPaused.Wrapf("pool %d is paused", e.pool.ID)
	}

	pool := e.pool
	quote, err := quoteSwap(&pool, direction, amountIn, now)
	if err != nil {
		return noQuote, err
	}

	// Price limit on the realized average price, input per output.
	if maxPrice != nil {
		realized := math.LegacyNewDecFromInt(amountIn).Quo(math.LegacyNewDecFromInt(quote.AmountOut))
		if realized.GT(*maxPrice) {
			return noQuote, types.ErrExcessiveSlippage.Wrapf(
				"realized price %s exceeds limit %s", realized, maxPrice)
		}
	}
	if !minAmountOut.IsNil() && quote.AmountOut.LT(minAmountOut) {
		return noQuote, types.ErrSlippageExceeded.Wrapf(
			"output %s below minimum %s", quote.AmountOut, minAmountOut)
	}

	netIn := amountIn.Sub(quote.FeeAmount)
	if direction == types.DirectionAToB {
		pool.ReserveA, err = SafeAdd(pool.ReserveA, netIn)
		if err != nil {
			return noQuote, err
		}
		pool.ReserveB, err = SafeSub(pool.ReserveB, quote.AmountOut)
	} else {
		pool.ReserveB, err = SafeAdd(pool.ReserveB, netIn)
		if err != nil {
			return noQuote, err
		}
		pool.ReserveA, err = SafeSub(pool.ReserveA, quote.AmountOut)
	}
	if err != nil {
		return noQuote, err
	}

	if err := checkSwapInvariant(&e.pool, &pool, now); err != nil {
		return noQuote, err
	}

	// Credit the LP fee to the input-side accumulator. Flooring leaves dust
	// in custody rather than over-crediting providers.
	if quote.LpFee.IsPositive() && pool.TotalShares.IsPositive() {
		accDelta, err := SafeMulDiv(quote.LpFee, types.FeePrecision, pool.TotalShares)
		if err != nil {
			return noQuote, err
		}
		if direction == types.DirectionAToB {
			pool.AccFeePerShareA = pool.AccFeePerShareA.Add(accDelta)
		} else {
			pool.AccFeePerShareB = pool.AccFeePerShareB.Add(accDelta)
		}
	}
	if direction == types.DirectionAToB {
		pool.ProtocolFeesA = pool.ProtocolFeesA.Add(quote.ProtocolFee)
		pool.CreatorFeesA = pool.CreatorFeesA.Add(quote.CreatorFee)
	} else {
		pool.ProtocolFeesB = pool.ProtocolFeesB.Add(quote.ProtocolFee)
		pool.CreatorFeesB = pool.CreatorFeesB.Add(quote.CreatorFee)
	}

	e.pool = pool
	return quote, nil
}

// PreviewSwap prices a swap without executing it. The quote matches what an
// immediately following Swap with the same inputs would settle at.
func (k *Keeper) PreviewSwap(
	poolID uint64,
	direction types.SwapDirection,
	amountIn math.Int,
	now time.Time,
) (types.SwapQuote, error) {
	e, err := k.getEntry(poolID)
	if err != nil {
		return types.SwapQuote{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pool.Paused {
		return types.SwapQuote{}, types.ErrPoolPaused.Wrapf("pool %d is paused", poolID)
	}
	pool := e.pool
	return quoteSwap(&pool, direction, amountIn, now)
}

// SpotPrice returns the current reserve-ratio price, input units per output
// unit for the given direction.
func (k *Keeper) SpotPrice(poolID uint64, direction types.SwapDirection) (math.LegacyDec, error) {
	if err := direction.Validate(); err != nil {
		return math.LegacyDec{}, err
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return math.LegacyDec{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	reserveIn, reserveOut := e.pool.ReserveA, e.pool.ReserveB
	if direction == types.DirectionBToA {
		reserveIn, reserveOut = e.pool.ReserveB, e.pool.ReserveA
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return math.LegacyDec{}, types.ErrInsufficientLiquidity.Wrap("pool has no reserves")
	}
	return math.LegacyNewDecFromInt(reserveIn).Quo(math.LegacyNewDecFromInt(reserveOut)), nil
}
