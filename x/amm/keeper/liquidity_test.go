package keeper_test

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

func TestAddLiquidityProportional(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	minted, refundA, refundB, err := k.AddLiquidity(
		poolID, "bob",
		math.NewInt(500_000), math.NewInt(500_000),
		math.ZeroInt(), 0,
	)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(500_000), minted)
	require.True(t, refundA.IsZero())
	require.True(t, refundB.IsZero())

	pool, err := k.GetPoolView(poolID)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_500_000), pool.ReserveA)
	require.Equal(t, math.NewInt(1_500_000), pool.ReserveB)
	require.Equal(t, math.NewInt(1_500_000), pool.TotalShares)

	require.NoError(t, k.VerifyShareConservation(poolID))
}

func TestAddLiquidityTrimsAndRefunds(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	// Stated ratio deviates 20% from the pool; a wide tolerance accepts it
	// and the surplus of asset B comes back as a refund.
	minted, refundA, refundB, err := k.AddLiquidity(
		poolID, "bob",
		math.NewInt(500_000), math.NewInt(600_000),
		math.ZeroInt(), 2_500,
	)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(500_000), minted)
	require.True(t, refundA.IsZero())
	require.Equal(t, math.NewInt(100_000), refundB)

	pool, err := k.GetPoolView(poolID)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_500_000), pool.ReserveA)
	require.Equal(t, math.NewInt(1_500_000), pool.ReserveB)
}

func TestAddLiquidityRatioBand(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	// 20% deviation against the default 0.5% band.
	_, _, _, err := k.AddLiquidity(
		poolID, "bob",
		math.NewInt(500_000), math.NewInt(600_000),
		math.ZeroInt(), 0,
	)
	require.ErrorIs(t, err, types.ErrExcessiveSlippage)

	pool, err := k.GetPoolView(poolID)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_000_000), pool.ReserveA)
	require.Equal(t, math.NewInt(1_000_000), pool.TotalShares)
}

func TestAddLiquidityMinShares(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	_, _, _, err := k.AddLiquidity(
		poolID, "bob",
		math.NewInt(500_000), math.NewInt(500_000),
		math.NewInt(500_001), 0,
	)
	require.ErrorIs(t, err, types.ErrSlippageExceeded)
}

func TestAddLiquidityValidation(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	_, _, _, err := k.AddLiquidity(poolID, types.SinkOwner,
		math.NewInt(1_000), math.NewInt(1_000), math.ZeroInt(), 0)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, _, _, err = k.AddLiquidity(poolID, "bob",
		math.ZeroInt(), math.NewInt(1_000), math.ZeroInt(), 0)
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, _, _, err = k.AddLiquidity(42, "bob",
		math.NewInt(1_000), math.NewInt(1_000), math.ZeroInt(), 0)
	require.ErrorIs(t, err, types.ErrPoolNotFound)
}

func TestAddLiquidityExistingPositionNoRetroactiveFees(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	// Accrue fees before bob joins.
	_, err := k.Swap(poolID, "trader", types.DirectionAToB,
		math.NewInt(100_000), math.ZeroInt(), nil, time.Time{}, testTime)
	require.NoError(t, err)

	pool, err := k.GetPoolView(poolID)
	require.NoError(t, err)

	// Join at the post-swap ratio.
	amountA := pool.ReserveA.QuoRaw(10)
	amountB := pool.ReserveB.QuoRaw(10)
	_, _, _, err = k.AddLiquidity(poolID, "bob", amountA, amountB, math.ZeroInt(), 100)
	require.NoError(t, err)

	view, err := k.GetPositionView(poolID, "bob")
	require.NoError(t, err)
	require.True(t, view.PendingFeeA.IsZero(), "fresh shares must not claim earlier fees")
	require.True(t, view.PendingFeeB.IsZero())
}

func TestRemoveLiquidityRoundTrip(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	amountA, amountB, feeA, feeB, err := k.RemoveLiquidity(
		poolID, "alice", math.NewInt(999_000), math.ZeroInt(), math.ZeroInt())
	require.NoError(t, err)

	// Full round trip with no trades loses exactly the sink's slice.
	require.Equal(t, math.NewInt(999_000), amountA)
	require.Equal(t, math.NewInt(999_000), amountB)
	require.True(t, feeA.IsZero())
	require.True(t, feeB.IsZero())

	pool, err := k.GetPoolView(poolID)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_000), pool.ReserveA)
	require.Equal(t, math.NewInt(1_000), pool.ReserveB)
	require.Equal(t, math.NewInt(1_000), pool.TotalShares)

	// The position is gone after a full removal.
	_, err = k.GetPositionView(poolID, "alice")
	require.ErrorIs(t, err, types.ErrPositionNotFound)
	require.NoError(t, k.VerifyShareConservation(poolID))
}

func TestRemoveLiquidityPartial(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	amountA, amountB, _, _, err := k.RemoveLiquidity(
		poolID, "alice", math.NewInt(499_500), math.ZeroInt(), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, math.NewInt(499_500), amountA)
	require.Equal(t, math.NewInt(499_500), amountB)

	view, err := k.GetPositionView(poolID, "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(499_500), view.Shares)
	require.NoError(t, k.VerifyShareConservation(poolID))
}

func TestRemoveLiquiditySettlesFees(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	_, err := k.Swap(poolID, "trader", types.DirectionAToB,
		math.NewInt(100_000), math.ZeroInt(), nil, time.Time{}, testTime)
	require.NoError(t, err)

	// acc = 300e12/1e6; alice is entitled to floor(999_000 * acc / 1e12) = 299.
	_, _, feeA, feeB, err := k.RemoveLiquidity(
		poolID, "alice", math.NewInt(100_000), math.ZeroInt(), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, math.NewInt(299), feeA)
	require.True(t, feeB.IsZero())

	// Fees were already settled; nothing further is pending.
	view, err := k.GetPositionView(poolID, "alice")
	require.NoError(t, err)
	require.True(t, view.PendingFeeA.IsZero())
}

func TestRemoveLiquidityErrors(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	_, _, _, _, err := k.RemoveLiquidity(poolID, types.SinkOwner,
		math.NewInt(1_000), math.ZeroInt(), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, _, _, _, err = k.RemoveLiquidity(poolID, "alice",
		math.NewInt(999_001), math.ZeroInt(), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrInsufficientLiquidity)

	_, _, _, _, err = k.RemoveLiquidity(poolID, "nobody",
		math.NewInt(1_000), math.ZeroInt(), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrPositionNotFound)

	_, _, _, _, err = k.RemoveLiquidity(poolID, "alice",
		math.ZeroInt(), math.ZeroInt(), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, _, _, _, err = k.RemoveLiquidity(poolID, "alice",
		math.NewInt(100_000), math.NewInt(100_001), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrSlippageExceeded)
}

// Depositing and immediately withdrawing the minted shares never returns
// more than went in; any shortfall is integer rounding only.
func TestAddRemoveRoundTripLossBound(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	deposits := [][2]int64{
		{250_000, 250_000},
		{333_333, 333_333},
		{17, 17},
		{999_999, 999_999},
	}
	for _, d := range deposits {
		amountA, amountB := math.NewInt(d[0]), math.NewInt(d[1])
		minted, refundA, refundB, err := k.AddLiquidity(poolID, "bob",
			amountA, amountB, math.ZeroInt(), 0)
		require.NoError(t, err)

		outA, outB, _, _, err := k.RemoveLiquidity(poolID, "bob",
			minted, math.ZeroInt(), math.ZeroInt())
		require.NoError(t, err)

		require.True(t, outA.Add(refundA).LTE(amountA),
			"deposit %s returned %s + refund %s", amountA, outA, refundA)
		require.True(t, outB.Add(refundB).LTE(amountB),
			"deposit %s returned %s + refund %s", amountB, outB, refundB)
	}
}

func TestCompoundFeesRedeposits(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	// Fees on both sides so the claim can be redeposited proportionally.
	_, err := k.Swap(poolID, "trader", types.DirectionAToB,
		math.NewInt(100_000), math.ZeroInt(), nil, time.Time{}, testTime)
	require.NoError(t, err)
	_, err = k.Swap(poolID, "trader", types.DirectionBToA,
		math.NewInt(100_000), math.ZeroInt(), nil, time.Time{}, testTime)
	require.NoError(t, err)

	before, err := k.GetPositionView(poolID, "alice")
	require.NoError(t, err)
	require.True(t, before.PendingFeeA.IsPositive())
	require.True(t, before.PendingFeeB.IsPositive())

	minted, _, _, err := k.CompoundFees(poolID, "alice", types.BpsDenominator)
	require.NoError(t, err)
	require.True(t, minted.IsPositive())

	after, err := k.GetPositionView(poolID, "alice")
	require.NoError(t, err)
	require.Equal(t, before.Shares.Add(minted), after.Shares)
	require.True(t, after.PendingFeeA.IsZero())
	require.True(t, after.PendingFeeB.IsZero())
	require.NoError(t, k.VerifyShareConservation(poolID))
}

func TestCompoundFeesNothingPending(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	minted, refundA, refundB, err := k.CompoundFees(poolID, "alice", 0)
	require.NoError(t, err)
	require.True(t, minted.IsZero())
	require.True(t, refundA.IsZero())
	require.True(t, refundB.IsZero())
}

func TestCompoundFeesOneSidedRefunds(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	// Fees on side A only; nothing proportional to redeposit.
	_, err := k.Swap(poolID, "trader", types.DirectionAToB,
		math.NewInt(100_000), math.ZeroInt(), nil, time.Time{}, testTime)
	require.NoError(t, err)

	minted, refundA, refundB, err := k.CompoundFees(poolID, "alice", 0)
	require.NoError(t, err)
	require.True(t, minted.IsZero())
	require.Equal(t, math.NewInt(299), refundA)
	require.True(t, refundB.IsZero())

	// The claim settled: nothing pending afterwards.
	view, err := k.GetPositionView(poolID, "alice")
	require.NoError(t, err)
	require.True(t, view.PendingFeeA.IsZero())
}
