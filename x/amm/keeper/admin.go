package keeper

import (
	"github.com/meridianlabs/ammcore/x/amm/types"
)

// Admin surface. Every operation here requires the capability minted by
// NewKeeper; the registry pool index and each pool's FeeTierBps are fixed at
// creation and cannot be changed from here.

// PausePool halts swaps and liquidity changes on a pool. Fee claims and
// admin operations remain available while paused.
func (k *Keeper) PausePool(cap Capability, poolID uint64) error {
	return k.setPaused(cap, poolID, true)
}

// UnpausePool resumes a paused pool.
func (k *Keeper) UnpausePool(cap Capability, poolID uint64) error {
	return k.setPaused(cap, poolID, false)
}

func (k *Keeper) setPaused(cap Capability, poolID uint64, paused bool) error {
	if err := k.authorize(cap); err != nil {
		return err
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pool.Paused == paused {
		return nil
	}
	e.pool.Paused = paused

	k.logger.Info("pool pause state changed", "pool_id", poolID, "paused", paused)
	return nil
}

// SetFeeConfig replaces a pool's fee configuration. The charged rate changes
// for subsequent swaps only; FeeTierBps keeps identifying the pool in the
// (pair, tier) index regardless of the new rate.
func (k *Keeper) SetFeeConfig(cap Capability, poolID uint64, fee types.FeeConfig) error {
	if err := k.authorize(cap); err != nil {
		return err
	}
	if err := fee.Validate(); err != nil {
		return err
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	old := e.pool.Fee
	e.pool.Fee = fee

	k.logger.Info("fee config updated",
		"pool_id", poolID,
		"old_fee_bps", old.FeeBps,
		"new_fee_bps", fee.FeeBps,
		"protocol_share_bps", fee.ProtocolFeeShareBps,
		"creator_share_bps", fee.CreatorFeeShareBps,
	)
	return nil
}
