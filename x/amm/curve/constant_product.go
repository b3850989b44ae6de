// Package curve implements the pure swap-math kernel: the constant-product
// formula and the two-asset StableSwap invariant solved by Newton's method.
// All arithmetic is integer-only over big.Int so every call is bit-identical
// for the same inputs. The kernel holds no state; reserve bookkeeping and
// amplification bounds are the keeper's responsibility.
package curve

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

var (
	bpsDenom = big.NewInt(types.BpsDenominator)
	one      = big.NewInt(1)
	two      = big.NewInt(2)
	three    = big.NewInt(3)
	four     = big.NewInt(4)
)

// NetAmountIn deducts the basis-point fee from an input amount, truncating:
// amountIn * (10000 - feeBps) / 10000. The fee charged is the remainder
// (amountIn - net), which rounds the fee up in the pool's favor.
func NetAmountIn(amountIn math.Int, feeBps uint32) math.Int {
	net := new(big.Int).Mul(amountIn.BigInt(), big.NewInt(int64(types.BpsDenominator-int64(feeBps))))
	net.Quo(net, bpsDenom)
	return math.NewIntFromBigInt(net)
}

// ConstantProductOut computes the output of a constant-product swap. The fee
// is deducted from amountIn before the exchange, and the result is truncated
// toward zero so rounding always favors the pool:
//
//	net = amountIn * (10000 - feeBps) / 10000
//	out = net * reserveOut / (reserveIn + amountIn)
func ConstantProductOut(reserveIn, reserveOut, amountIn math.Int, feeBps uint32) (math.Int, error) {
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrap("swap input must be positive")
	}
	if reserveIn.IsNil() || reserveOut.IsNil() || reserveIn.IsZero() || reserveOut.IsZero() {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrap("pool reserves must be positive")
	}
	if feeBps >= types.BpsDenominator {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrapf("fee %d bps consumes the entire input", feeBps)
	}

	net := NetAmountIn(amountIn, feeBps)
	if net.IsZero() {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrap("swap input too small after fee")
	}

	numerator := new(big.Int).Mul(net.BigInt(), reserveOut.BigInt())
	denominator := new(big.Int).Add(reserveIn.BigInt(), amountIn.BigInt())
	out := numerator.Quo(numerator, denominator)
	return math.NewIntFromBigInt(out), nil
}
