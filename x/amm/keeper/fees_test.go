package keeper_test

import (
	"math/rand"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/ammcore/x/amm/keeper"
	"github.com/meridianlabs/ammcore/x/amm/types"
)

// Two providers with equal shares split a fee evenly, the locked sink slice
// rounds to zero, and nothing is ever over-distributed.
func TestClaimFeesEqualSplit(t *testing.T) {
	k, _ := newTestKeeper(t)
	pool, _, err := k.CreatePool(
		"alice", "uatom", "uusdc",
		math.NewInt(1_000_000), math.NewInt(1_000_000),
		types.FeeConfig{FeeBps: 100},
		types.CurveConstantProduct, types.CurveParams{},
		testTime,
	)
	require.NoError(t, err)

	// bob matches alice's 999_000 shares.
	minted, _, _, err := k.AddLiquidity(pool.ID, "bob",
		math.NewInt(999_000), math.NewInt(999_000), math.ZeroInt(), 0)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(999_000), minted)

	// One swap collecting a 1_000 fee.
	quote, err := k.Swap(pool.ID, "trader", types.DirectionAToB,
		math.NewInt(100_000), math.ZeroInt(), nil, time.Time{}, testTime)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_000), quote.FeeAmount)

	aliceA, aliceB, err := k.ClaimFees(pool.ID, "alice")
	require.NoError(t, err)
	bobA, bobB, err := k.ClaimFees(pool.ID, "bob")
	require.NoError(t, err)

	require.Equal(t, aliceA, bobA, "equal shares must earn equal fees")
	require.True(t, aliceB.IsZero())
	require.True(t, bobB.IsZero())
	// floor(999_000 * floor(1_000e12 / 1_999_000) / 1e12) each.
	require.Equal(t, math.NewInt(499), aliceA)
	// Distributed total never exceeds the collected fee.
	require.True(t, aliceA.Add(bobA).LTE(quote.FeeAmount))
}

func TestClaimFeesIdempotent(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	_, err := k.Swap(poolID, "trader", types.DirectionAToB,
		math.NewInt(100_000), math.ZeroInt(), nil, time.Time{}, testTime)
	require.NoError(t, err)

	first, _, err := k.ClaimFees(poolID, "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(299), first)

	// A second claim with no intervening swap yields nothing.
	second, _, err := k.ClaimFees(poolID, "alice")
	require.NoError(t, err)
	require.True(t, second.IsZero())

	// A further swap accrues a fresh claim.
	_, err = k.Swap(poolID, "trader", types.DirectionAToB,
		math.NewInt(100_000), math.ZeroInt(), nil, time.Time{}, testTime)
	require.NoError(t, err)
	third, _, err := k.ClaimFees(poolID, "alice")
	require.NoError(t, err)
	require.True(t, third.IsPositive())
}

func TestClaimFeesOrderIndependent(t *testing.T) {
	setup := func(t *testing.T) (*keeper.Keeper, uint64) {
		k, _ := newTestKeeper(t)
		pool, _, err := k.CreatePool(
			"alice", "uatom", "uusdc",
			math.NewInt(1_000_000), math.NewInt(1_000_000),
			types.FeeConfig{FeeBps: 100},
			types.CurveConstantProduct, types.CurveParams{},
			testTime,
		)
		require.NoError(t, err)
		_, _, _, err = k.AddLiquidity(pool.ID, "bob",
			math.NewInt(400_000), math.NewInt(400_000), math.ZeroInt(), 0)
		require.NoError(t, err)
		_, err = k.Swap(pool.ID, "trader", types.DirectionAToB,
			math.NewInt(250_000), math.ZeroInt(), nil, time.Time{}, testTime)
		require.NoError(t, err)
		return k, pool.ID
	}

	k1, id1 := setup(t)
	a1, _, err := k1.ClaimFees(id1, "alice")
	require.NoError(t, err)
	b1, _, err := k1.ClaimFees(id1, "bob")
	require.NoError(t, err)

	k2, id2 := setup(t)
	b2, _, err := k2.ClaimFees(id2, "bob")
	require.NoError(t, err)
	a2, _, err := k2.ClaimFees(id2, "alice")
	require.NoError(t, err)

	require.Equal(t, a1, a2, "claim order must not change alice's payout")
	require.Equal(t, b1, b2, "claim order must not change bob's payout")
}

func TestClaimFeesErrors(t *testing.T) {
	k, _ := newTestKeeper(t)
	poolID := createBalancedPool(t, k, "alice", 30)

	_, _, err := k.ClaimFees(poolID, types.SinkOwner)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, _, err = k.ClaimFees(poolID, "nobody")
	require.ErrorIs(t, err, types.ErrPositionNotFound)

	_, _, err = k.ClaimFees(42, "alice")
	require.ErrorIs(t, err, types.ErrPoolNotFound)
}

// Randomized interleavings of swaps and claims never distribute more than
// the collected LP fees, and shares stay conserved throughout.
func TestClaimFeesRandomizedOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	owners := []string{"alice", "bob", "carol", "dave"}

	for round := 0; round < 1_000; round++ {
		k, _ := newTestKeeper(t)
		pool, _, err := k.CreatePool(
			"alice", "uatom", "uusdc",
			math.NewInt(10_000_000), math.NewInt(10_000_000),
			types.FeeConfig{FeeBps: 100},
			types.CurveConstantProduct, types.CurveParams{},
			testTime,
		)
		require.NoError(t, err)
		for _, owner := range owners[1:] {
			amount := math.NewInt(rng.Int63n(5_000_000) + 1_000_000)
			_, _, _, err := k.AddLiquidity(pool.ID, owner, amount, amount, math.ZeroInt(), 0)
			require.NoError(t, err)
		}

		totalFees := math.ZeroInt()
		claimed := math.ZeroInt()
		for step := 0; step < 12; step++ {
			if rng.Intn(2) == 0 {
				direction := types.DirectionAToB
				if rng.Intn(2) == 0 {
					direction = types.DirectionBToA
				}
				amountIn := math.NewInt(rng.Int63n(500_000) + 1_000)
				quote, err := k.Swap(pool.ID, "trader", direction, amountIn,
					math.ZeroInt(), nil, time.Time{}, testTime)
				require.NoError(t, err)
				totalFees = totalFees.Add(quote.FeeAmount)
			} else {
				owner := owners[rng.Intn(len(owners))]
				feeA, feeB, err := k.ClaimFees(pool.ID, owner)
				require.NoError(t, err)
				claimed = claimed.Add(feeA).Add(feeB)
			}
		}
		for _, owner := range owners {
			feeA, feeB, err := k.ClaimFees(pool.ID, owner)
			require.NoError(t, err)
			claimed = claimed.Add(feeA).Add(feeB)
		}

		require.True(t, claimed.LTE(totalFees),
			"round %d distributed %s of %s collected", round, claimed, totalFees)
		require.NoError(t, k.VerifyShareConservation(pool.ID))
	}
}

func TestWithdrawProtocolFees(t *testing.T) {
	k, cap := newTestKeeper(t)
	pool, _, err := k.CreatePool(
		"alice", "uatom", "uusdc",
		math.NewInt(1_000_000), math.NewInt(1_000_000),
		types.FeeConfig{FeeBps: 100, ProtocolFeeShareBps: 2_000},
		types.CurveConstantProduct, types.CurveParams{},
		testTime,
	)
	require.NoError(t, err)

	_, err = k.Swap(pool.ID, "trader", types.DirectionAToB,
		math.NewInt(100_000), math.ZeroInt(), nil, time.Time{}, testTime)
	require.NoError(t, err)

	_, _, err = k.WithdrawProtocolFees(keeper.Capability{}, pool.ID)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	amountA, amountB, err := k.WithdrawProtocolFees(cap, pool.ID)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(200), amountA)
	require.True(t, amountB.IsZero())

	// Buckets drained.
	again, _, err := k.WithdrawProtocolFees(cap, pool.ID)
	require.NoError(t, err)
	require.True(t, again.IsZero())
}

func TestWithdrawCreatorFees(t *testing.T) {
	k, _ := newTestKeeper(t)
	pool, _, err := k.CreatePool(
		"alice", "uatom", "uusdc",
		math.NewInt(1_000_000), math.NewInt(1_000_000),
		types.FeeConfig{FeeBps: 100, CreatorFeeShareBps: 1_000},
		types.CurveConstantProduct, types.CurveParams{},
		testTime,
	)
	require.NoError(t, err)

	_, err = k.Swap(pool.ID, "trader", types.DirectionAToB,
		math.NewInt(100_000), math.ZeroInt(), nil, time.Time{}, testTime)
	require.NoError(t, err)

	_, _, err = k.WithdrawCreatorFees(pool.ID, "bob")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	amountA, amountB, err := k.WithdrawCreatorFees(pool.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100), amountA)
	require.True(t, amountB.IsZero())
}
