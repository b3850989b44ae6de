package curve

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

// MaxIterations is the hard cap on Newton iterations. The solvers normally
// converge within a handful of rounds; hitting the cap is reported as
// ErrConvergenceFailure rather than returning a stale value.
const MaxIterations = 255

// nCoins is fixed at 2: every pool holds exactly one asset pair.
const nCoins = 2

// StableD solves the two-asset StableSwap invariant for D by Newton's method:
//
//	A*n^n*(x+y) + D = A*n^n*D + D^(n+1) / (n^n * x*y)
//
// with the iteration
//
//	D_P  = D^3 / (4*x*y)
//	D'   = (Ann*S + 2*D_P) * D / ((Ann-1)*D + 3*D_P)
//
// where Ann = A*4 and S = x+y, stopping when |D' - D| <= 1.
func StableD(x, y math.Int, amp uint64) (math.Int, error) {
	if x.IsNil() || y.IsNil() || !x.IsPositive() || !y.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrap("stable balances must be positive")
	}

	xb, yb := x.BigInt(), y.BigInt()
	ann := new(big.Int).SetUint64(amp * nCoins * nCoins)
	s := new(big.Int).Add(xb, yb)
	fourXY := new(big.Int).Mul(new(big.Int).Mul(xb, yb), four)
	annMinusOne := new(big.Int).Sub(ann, one)

	d := new(big.Int).Set(s)
	for i := 0; i < MaxIterations; i++ {
		// D_P = D^3 / (4*x*y)
		dp := new(big.Int).Mul(d, d)
		dp.Mul(dp, d)
		dp.Quo(dp, fourXY)

		// D' = (Ann*S + 2*D_P) * D / ((Ann-1)*D + 3*D_P)
		num := new(big.Int).Mul(ann, s)
		num.Add(num, new(big.Int).Mul(dp, two))
		num.Mul(num, d)
		den := new(big.Int).Mul(annMinusOne, d)
		den.Add(den, new(big.Int).Mul(dp, three))

		dNew := num.Quo(num, den)
		if converged(dNew, d) {
			return math.NewIntFromBigInt(dNew), nil
		}
		d = dNew
	}
	return math.ZeroInt(), types.ErrConvergenceFailure.Wrapf(
		"invariant D did not converge within %d iterations (x=%s y=%s amp=%d)", MaxIterations, x, y, amp)
}

// StableY solves for the complementary balance given one balance and the
// invariant D:
//
//	c  = D^3 / (4*x*Ann)
//	b  = x + D/Ann
//	y' = (y^2 + c) / (2y + b - D)
//
// iterated to the same tolerance and cap as StableD. Used both to price a
// stable swap and to re-derive the post-swap reserve.
func StableY(x, d math.Int, amp uint64) (math.Int, error) {
	if x.IsNil() || !x.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrap("known balance must be positive")
	}
	if d.IsNil() || !d.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrap("invariant D must be positive")
	}

	xb, db := x.BigInt(), d.BigInt()
	ann := new(big.Int).SetUint64(amp * nCoins * nCoins)

	// c = D^3 / (4*x*Ann)
	c := new(big.Int).Mul(db, db)
	c.Mul(c, db)
	c.Quo(c, new(big.Int).Mul(new(big.Int).Mul(xb, four), ann))

	// b = x + D/Ann
	b := new(big.Int).Add(xb, new(big.Int).Quo(db, ann))

	y := new(big.Int).Set(db)
	for i := 0; i < MaxIterations; i++ {
		// y' = (y^2 + c) / (2y + b - D)
		num := new(big.Int).Mul(y, y)
		num.Add(num, c)
		den := new(big.Int).Mul(y, two)
		den.Add(den, b)
		den.Sub(den, db)
		if den.Sign() <= 0 {
			return math.ZeroInt(), types.ErrConvergenceFailure.Wrap("y iteration denominator not positive")
		}

		yNew := num.Quo(num, den)
		if converged(yNew, y) {
			return math.NewIntFromBigInt(yNew), nil
		}
		y = yNew
	}
	return math.ZeroInt(), types.ErrConvergenceFailure.Wrapf(
		"balance y did not converge within %d iterations (x=%s D=%s amp=%d)", MaxIterations, x, d, amp)
}

// StableOut computes the output of a stable swap: fee on input, then the
// post-trade complementary balance at constant D. Output is the reserve
// shortfall, truncated by the integer solvers.
func StableOut(reserveIn, reserveOut, amountIn math.Int, feeBps uint32, amp uint64) (math.Int, error) {
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrap("swap input must be positive")
	}
	if feeBps >= types.BpsDenominator {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrapf("fee %d bps consumes the entire input", feeBps)
	}

	net := NetAmountIn(amountIn, feeBps)
	if net.IsZero() {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrap("swap input too small after fee")
	}

	d, err := StableD(reserveIn, reserveOut, amp)
	if err != nil {
		return math.ZeroInt(), err
	}
	yNew, err := StableY(reserveIn.Add(net), d, amp)
	if err != nil {
		return math.ZeroInt(), err
	}

	out := reserveOut.Sub(yNew)
	if !out.IsPositive() {
		return math.ZeroInt(), types.ErrInsufficientLiquidity.Wrap("stable output amount too small")
	}
	return out, nil
}

// converged reports |a - b| <= 1, the shared Newton stop tolerance.
func converged(a, b *big.Int) bool {
	diff := new(big.Int).Sub(a, b)
	return diff.CmpAbs(one) <= 0
}
