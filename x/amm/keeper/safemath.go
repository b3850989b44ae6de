package keeper

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

// Overflow-safe arithmetic backing every reserve and share mutation. math.Int
// caps at 256 bits; intermediates are computed over big.Int and checked
// before conversion.

var maxInt = new(big.Int).Exp(big.NewInt(2), big.NewInt(256), nil)

func checkedInt(v *big.Int) (math.Int, error) {
	if v.CmpAbs(maxInt) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("result exceeds 256 bits")
	}
	return math.NewIntFromBigInt(v), nil
}

// SafeAdd adds two math.Int values with overflow checking.
func SafeAdd(a, b math.Int) (math.Int, error) {
	return checkedInt(new(big.Int).Add(a.BigInt(), b.BigInt()))
}

// SafeSub subtracts b from a, failing on underflow below zero.
func SafeSub(a, b math.Int) (math.Int, error) {
	if a.LT(b) {
		return math.Int{}, types.ErrOverflow.Wrapf("underflow: cannot subtract %s from %s", b, a)
	}
	return checkedInt(new(big.Int).Sub(a.BigInt(), b.BigInt()))
}

// SafeMul multiplies two math.Int values with overflow checking.
func SafeMul(a, b math.Int) (math.Int, error) {
	return checkedInt(new(big.Int).Mul(a.BigInt(), b.BigInt()))
}

// SafeMulDiv computes floor(a * b / c), the multiply-before-divide ordering
// used by all pro-rata share math.
func SafeMulDiv(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, types.ErrOverflow.Wrap("division by zero")
	}
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return checkedInt(product.Quo(product, c.BigInt()))
}

// SafeMulDivCeil computes ceil(a * b / c).
func SafeMulDivCeil(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, types.ErrOverflow.Wrap("division by zero")
	}
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	cb := c.BigInt()
	product.Add(product, new(big.Int).Sub(cb, big.NewInt(1)))
	return checkedInt(product.Quo(product, cb))
}

// IntSqrt returns floor(sqrt(v)), the exact integer square root used for the
// initial share mint.
func IntSqrt(v math.Int) (math.Int, error) {
	if v.IsNegative() {
		return math.Int{}, types.ErrOverflow.Wrap("square root of negative value")
	}
	return math.NewIntFromBigInt(new(big.Int).Sqrt(v.BigInt())), nil
}
