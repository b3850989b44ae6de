package types

import (
	"time"

	"cosmossdk.io/math"
)

// Params are the engine-wide settings. The library does not load configuration
// itself; the embedding registry/factory supplies Params (validated) at
// construction time.
type Params struct {
	// MinInitialLiquidity is the smallest initial share mint accepted at pool
	// creation. Must exceed MinimumShares so the creator retains a claim.
	MinInitialLiquidity math.Int

	// DefaultRatioToleranceBps is the deposit ratio band applied when a caller
	// passes zero tolerance to AddLiquidity.
	DefaultRatioToleranceBps uint32

	// MinRampDuration is the shortest permitted amplification ramp.
	MinRampDuration time.Duration

	// DefaultFee is the fee configuration applied when a pool is created with
	// a zero FeeConfig.
	DefaultFee FeeConfig
}

// DefaultParams returns the default engine parameters.
func DefaultParams() Params {
	return Params{
		MinInitialLiquidity:      math.NewInt(MinimumShares),
		DefaultRatioToleranceBps: 50,            // 0.5%
		MinRampDuration:          24 * time.Hour,
		DefaultFee: FeeConfig{
			FeeBps:              30, // 0.3%
			ProtocolFeeShareBps: 1_000,
			CreatorFeeShareBps:  0,
		},
	}
}

// Validate validates the set of params.
func (p Params) Validate() error {
	if p.MinInitialLiquidity.IsNil() || p.MinInitialLiquidity.LT(math.NewInt(MinimumShares)) {
		return ErrInvalidPoolState.Wrapf("min initial liquidity must be at least %d", MinimumShares)
	}
	if p.DefaultRatioToleranceBps > BpsDenominator {
		return ErrInvalidPoolState.Wrap("ratio tolerance exceeds 10000 bps")
	}
	if p.MinRampDuration <= 0 {
		return ErrInvalidPoolState.Wrap("min ramp duration must be positive")
	}
	return p.DefaultFee.Validate()
}
