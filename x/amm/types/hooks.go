package types

import (
	sdkmath "cosmossdk.io/math"
)

// AmmHooks defines the callback interface consumed by external collaborators
// (statistics recorder, registry indexer). Hooks run after the state change
// committed and cannot veto it; the engine logs hook errors and reports the
// operation as settled.
type AmmHooks interface {
	// AfterPoolCreated is called once per pool, after the initial mint.
	AfterPoolCreated(poolID uint64, assetA, assetB string, creator string) error

	// AfterSwap is called after a successful swap settles.
	AfterSwap(poolID uint64, trader string, direction SwapDirection, amountIn, amountOut, feeAmount sdkmath.Int) error

	// AfterLiquidityChanged is called when shares are minted or burned.
	AfterLiquidityChanged(poolID uint64, owner string, deltaA, deltaB, deltaShares sdkmath.Int, isAdd bool) error

	// AfterFeesClaimed is called after an owner settles pending fees.
	AfterFeesClaimed(poolID uint64, owner string, feeA, feeB sdkmath.Int) error
}

// MultiAmmHooks combines multiple hooks into one that calls all of them.
type MultiAmmHooks []AmmHooks

// NewMultiAmmHooks creates a MultiAmmHooks from a list of hooks.
func NewMultiAmmHooks(hooks ...AmmHooks) MultiAmmHooks {
	return hooks
}

// AfterPoolCreated calls AfterPoolCreated on all registered hooks.
func (h MultiAmmHooks) AfterPoolCreated(poolID uint64, assetA, assetB string, creator string) error {
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.AfterPoolCreated(poolID, assetA, assetB, creator); err != nil {
			return err
		}
	}
	return nil
}

// AfterSwap calls AfterSwap on all registered hooks.
func (h MultiAmmHooks) AfterSwap(poolID uint64, trader string, direction SwapDirection, amountIn, amountOut, feeAmount sdkmath.Int) error {
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.AfterSwap(poolID, trader, direction, amountIn, amountOut, feeAmount); err != nil {
			return err
		}
	}
	return nil
}

// AfterLiquidityChanged calls AfterLiquidityChanged on all registered hooks.
func (h MultiAmmHooks) AfterLiquidityChanged(poolID uint64, owner string, deltaA, deltaB, deltaShares sdkmath.Int, isAdd bool) error {
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.AfterLiquidityChanged(poolID, owner, deltaA, deltaB, deltaShares, isAdd); err != nil {
			return err
		}
	}
	return nil
}

// AfterFeesClaimed calls AfterFeesClaimed on all registered hooks.
func (h MultiAmmHooks) AfterFeesClaimed(poolID uint64, owner string, feeA, feeB sdkmath.Int) error {
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.AfterFeesClaimed(poolID, owner, feeA, feeB); err != nil {
			return err
		}
	}
	return nil
}
