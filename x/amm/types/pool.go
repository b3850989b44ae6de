package types

import (
	"time"

	"cosmossdk.io/math"
)

const (
	// ModuleName defines the module name
	ModuleName = "amm"

	// BpsDenominator is the basis-point scale (1 bps = 0.01%)
	BpsDenominator = 10_000

	// MinimumShares is minted once at pool creation and assigned to the sink
	// position. It is never redeemable, so TotalShares stays positive for the
	// lifetime of the pool.
	MinimumShares = 1_000

	// SinkOwner is the null owner holding the permanently locked MinimumShares.
	SinkOwner = "sink"

	// MinAmplification and MaxAmplification bound the stable-curve coefficient.
	MinAmplification = 1
	MaxAmplification = 10_000

	// MaxRampFactor bounds how far a single amplification ramp may move the
	// coefficient: at most 2x up or 0.5x down from the current effective value.
	MaxRampFactor = 2

	// StableInvariantSlack is the rounding tolerance applied to the stable
	// invariant check after a swap: D_after + slack >= D_before. Inherited
	// from the reference behavior as-is; do not tighten or loosen without an
	// audit of the y-solver rounding direction.
	StableInvariantSlack = 1
)

// FeePrecision is the fixed-point scale of the per-share fee accumulators.
var FeePrecision = math.NewInt(1_000_000_000_000) // 1e12

// FeeConfig holds the basis-point fee rates of a pool. ProtocolFeeShareBps and
// CreatorFeeShareBps are shares of the collected fee, not of the swap amount;
// the remainder of the fee accrues to liquidity providers.
type FeeConfig struct {
	FeeBps              uint32
	ProtocolFeeShareBps uint32
	CreatorFeeShareBps  uint32
}

// Validate checks the fee rates are within the basis-point scale.
func (f FeeConfig) Validate() error {
	if f.FeeBps > BpsDenominator {
		return ErrInvalidPoolState.Wrapf("fee %d bps exceeds %d", f.FeeBps, BpsDenominator)
	}
	if f.ProtocolFeeShareBps > BpsDenominator || f.CreatorFeeShareBps > BpsDenominator {
		return ErrInvalidPoolState.Wrap("fee share exceeds 10000 bps")
	}
	if f.ProtocolFeeShareBps+f.CreatorFeeShareBps > BpsDenominator {
		return ErrInvalidPoolState.Wrapf(
			"protocol share %d + creator share %d exceeds 10000 bps",
			f.ProtocolFeeShareBps, f.CreatorFeeShareBps,
		)
	}
	return nil
}

// Pool is the authoritative state of one liquidity pool. Reserves exclude
// accrued-but-unclaimed fees and the protocol/creator buckets; those amounts
// are custodied alongside the reserves but are not priced by the curve.
type Pool struct {
	ID     uint64
	AssetA string
	AssetB string

	// FeeTierBps is the fee rate the pool was created with. It identifies the
	// pool in the (pair, tier) registry index and never changes, while the
	// charged Fee.FeeBps may be adjusted by governance.
	FeeTierBps uint32
	Fee        FeeConfig

	Curve       CurveType
	CurveParams CurveParams

	ReserveA    math.Int
	ReserveB    math.Int
	TotalShares math.Int

	// AccFeePerShareA/B are monotonically non-decreasing lifetime fee
	// accumulators, scaled by FeePrecision.
	AccFeePerShareA math.Int
	AccFeePerShareB math.Int

	// ProtocolFeesA/B and CreatorFeesA/B are the undistributed fee buckets.
	ProtocolFeesA math.Int
	ProtocolFeesB math.Int
	CreatorFeesA  math.Int
	CreatorFeesB  math.Int

	Creator string
	Paused  bool
}

// Validate checks structural pool invariants.
func (p Pool) Validate() error {
	if p.AssetA == "" || p.AssetB == "" {
		return ErrInvalidAsset.Wrap("asset denominations cannot be empty")
	}
	if p.AssetA == p.AssetB {
		return ErrInvalidAsset.Wrap("pool assets must be distinct")
	}
	if p.ReserveA.IsNegative() || p.ReserveB.IsNegative() {
		return ErrInvalidPoolState.Wrap("negative reserve")
	}
	if p.TotalShares.IsNegative() {
		return ErrInvalidPoolState.Wrap("negative total shares")
	}
	if (p.ReserveA.IsZero() || p.ReserveB.IsZero()) && !p.TotalShares.IsZero() {
		return ErrInvalidPoolState.Wrap("pool has shares but zero reserves")
	}
	if err := p.Fee.Validate(); err != nil {
		return err
	}
	if p.Curve == CurveStable {
		if p.CurveParams.Amplification < MinAmplification || p.CurveParams.Amplification > MaxAmplification {
			return ErrInvalidAmplification.Wrapf(
				"amplification %d outside [%d, %d]",
				p.CurveParams.Amplification, MinAmplification, MaxAmplification,
			)
		}
	}
	return nil
}

// IsStable reports whether the pool prices trades on the stable invariant.
func (p Pool) IsStable() bool {
	return p.Curve == CurveStable
}

// EffectiveAmplification returns the amplification coefficient at time now,
// linearly interpolated along the active ramp and clamped to its endpoints.
func (p Pool) EffectiveAmplification(now time.Time) uint64 {
	cp := p.CurveParams
	if cp.RampDuration <= 0 {
		return cp.Amplification
	}
	elapsed := now.Sub(cp.RampStartTime)
	if elapsed <= 0 {
		return cp.Amplification
	}
	if elapsed >= cp.RampDuration {
		return cp.RampTargetAmplification
	}
	// The delta times elapsed nanoseconds exceeds int64 on long ramps, so
	// interpolate in arbitrary precision.
	start := int64(cp.Amplification)
	delta := math.NewInt(int64(cp.RampTargetAmplification) - start)
	interp := delta.MulRaw(int64(elapsed)).QuoRaw(int64(cp.RampDuration))
	return uint64(start + interp.Int64())
}
