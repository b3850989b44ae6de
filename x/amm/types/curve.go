package types

import (
	"time"
)

// CurveType selects the pricing formula a pool was created with. The variant
// is fixed at creation; operations dispatch on the tag.
type CurveType uint8

const (
	// CurveConstantProduct prices trades so that reserveA * reserveB is held
	// constant modulo fees.
	CurveConstantProduct CurveType = iota

	// CurveStable prices trades on the StableSwap invariant, flattened near
	// 1:1 by the amplification coefficient.
	CurveStable
)

func (c CurveType) String() string {
	switch c {
	case CurveConstantProduct:
		return "constant_product"
	case CurveStable:
		return "stable"
	default:
		return "unknown"
	}
}

// Validate rejects unknown curve tags.
func (c CurveType) Validate() error {
	switch c {
	case CurveConstantProduct, CurveStable:
		return nil
	default:
		return ErrInvalidPoolState.Wrapf("unknown curve type %d", c)
	}
}

// CurveParams holds the stable-curve parameters. Zero value for
// constant-product pools. While a ramp is active, Amplification is the value
// at RampStartTime and the effective coefficient interpolates toward
// RampTargetAmplification over RampDuration.
type CurveParams struct {
	Amplification           uint64
	RampTargetAmplification uint64
	RampStartTime           time.Time
	RampDuration            time.Duration
}

// SwapDirection identifies which reserve the input amount is paid into.
type SwapDirection uint8

const (
	// DirectionAToB swaps asset A for asset B.
	DirectionAToB SwapDirection = iota
	// DirectionBToA swaps asset B for asset A.
	DirectionBToA
)

func (d SwapDirection) String() string {
	if d == DirectionAToB {
		return "a_to_b"
	}
	return "b_to_a"
}

// Validate rejects unknown directions.
func (d SwapDirection) Validate() error {
	switch d {
	case DirectionAToB, DirectionBToA:
		return nil
	default:
		return ErrInvalidAmount.Wrapf("unknown swap direction %d", d)
	}
}
