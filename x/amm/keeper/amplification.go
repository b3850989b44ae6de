package keeper

import (
	"time"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

// StartRampAmplification begins a linear ramp of a stable pool's
// amplification coefficient. The target must stay within the global bounds
// and within a factor of MaxRampFactor of the current effective value, and
// the ramp must run at least MinRampDuration. Starting a new ramp while one
// is active rebases from the current effective coefficient.
func (k *Keeper) StartRampAmplification(
	cap Capability,
	poolID uint64,
	target uint64,
	duration time.Duration,
	now time.Time,
) error {
	if err := k.authorize(cap); err != nil {
		return err
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.pool.IsStable() {
		return types.ErrInvalidPoolState.Wrapf("pool %d does not use the stable curve", poolID)
	}
	if target < types.MinAmplification || target > types.MaxAmplification {
		return types.ErrInvalidAmplification.Wrapf(
			"target %d outside [%d, %d]", target, types.MinAmplification, types.MaxAmplification)
	}
	if duration < k.params.MinRampDuration {
		return types.ErrInvalidAmplification.Wrapf(
			"ramp duration %s below minimum %s", duration, k.params.MinRampDuration)
	}

	current := e.pool.EffectiveAmplification(now)
	if target > current*types.MaxRampFactor || target*types.MaxRampFactor < current {
		return types.ErrInvalidAmplification.Wrapf(
			"target %d outside factor-%d band of current %d", target, types.MaxRampFactor, current)
	}

	e.pool.CurveParams = types.CurveParams{
		Amplification:           current,
		RampTargetAmplification: target,
		RampStartTime:           now,
		RampDuration:            duration,
	}

	k.logger.Info("amplification ramp started",
		"pool_id", poolID,
		"from", current,
		"target", target,
		"duration", duration.String(),
	)
	return nil
}

// StopRampAmplification halts an active ramp, freezing the coefficient at its
// current effective value. A no-op when no ramp is active.
func (k *Keeper) StopRampAmplification(cap Capability, poolID uint64, now time.Time) error {
	if err := k.authorize(cap); err != nil {
		return err
	}
	e, err := k.getEntry(poolID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.pool.IsStable() {
		return types.ErrInvalidPoolState.Wrapf("pool %d does not use the stable curve", poolID)
	}
	if e.pool.CurveParams.RampDuration <= 0 {
		return nil
	}

	frozen := e.pool.EffectiveAmplification(now)
	e.pool.CurveParams = types.CurveParams{Amplification: frozen}

	k.logger.Info("amplification ramp stopped", "pool_id", poolID, "amplification", frozen)
	return nil
}
