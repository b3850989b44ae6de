package curve_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/ammcore/x/amm/curve"
	"github.com/meridianlabs/ammcore/x/amm/types"
)

func TestNetAmountIn(t *testing.T) {
	tests := []struct {
		name     string
		amountIn int64
		feeBps   uint32
		want     int64
	}{
		{"thirty bps", 100_000, 30, 99_700},
		{"one percent", 100_000, 100, 99_000},
		{"zero fee", 100_000, 0, 100_000},
		{"truncates toward pool", 999, 30, 996},   // 999 * 9970 / 10000 = 996.003
		{"tiny input consumed", 1, 5_000, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := curve.NetAmountIn(math.NewInt(tc.amountIn), tc.feeBps)
			require.Equal(t, math.NewInt(tc.want), got)
		})
	}
}

func TestConstantProductOut(t *testing.T) {
	tests := []struct {
		name       string
		reserveIn  int64
		reserveOut int64
		amountIn   int64
		feeBps     uint32
		want       int64
	}{
		{
			// net = 99_700, out = 99_700 * 1_000_000 / 1_100_000
			name:       "balanced pool thirty bps",
			reserveIn:  1_000_000,
			reserveOut: 1_000_000,
			amountIn:   100_000,
			feeBps:     30,
			want:       90_636,
		},
		{
			name:       "zero fee balanced",
			reserveIn:  1_000_000,
			reserveOut: 1_000_000,
			amountIn:   100_000,
			feeBps:     0,
			want:       90_909, // 100_000 * 1_000_000 / 1_100_000
		},
		{
			name:       "asymmetric reserves",
			reserveIn:  2_000_000,
			reserveOut: 500_000,
			amountIn:   100_000,
			feeBps:     30,
			want:       23_738, // 99_700 * 500_000 / 2_100_000
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := curve.ConstantProductOut(
				math.NewInt(tc.reserveIn), math.NewInt(tc.reserveOut),
				math.NewInt(tc.amountIn), tc.feeBps,
			)
			require.NoError(t, err)
			require.Equal(t, math.NewInt(tc.want), got)
		})
	}
}

func TestConstantProductOutErrors(t *testing.T) {
	one := math.NewInt(1_000_000)

	_, err := curve.ConstantProductOut(one, one, math.ZeroInt(), 30)
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = curve.ConstantProductOut(one, one, math.NewInt(-5), 30)
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = curve.ConstantProductOut(math.ZeroInt(), one, math.NewInt(100), 30)
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = curve.ConstantProductOut(one, math.ZeroInt(), math.NewInt(100), 30)
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = curve.ConstantProductOut(one, one, math.NewInt(100), 10_000)
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	// Fee consumes the entire input.
	_, err = curve.ConstantProductOut(one, one, math.NewInt(1), 5_000)
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestConstantProductDeterminism(t *testing.T) {
	first, err := curve.ConstantProductOut(
		math.NewInt(123_456_789), math.NewInt(987_654_321), math.NewInt(55_555), 30)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := curve.ConstantProductOut(
			math.NewInt(123_456_789), math.NewInt(987_654_321), math.NewInt(55_555), 30)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

// The truncated output must never exceed the exact quotient, so the pool
// keeps every rounding remainder.
func TestConstantProductRoundingFavorsPool(t *testing.T) {
	cases := [][3]int64{
		{1_000_000, 1_000_000, 100_000},
		{3, 7, 11},
		{999_999_937, 104_729, 65_537},
		{1, 1_000_000_000, 1},
	}
	for _, c := range cases {
		reserveIn, reserveOut, amountIn := math.NewInt(c[0]), math.NewInt(c[1]), math.NewInt(c[2])
		out, err := curve.ConstantProductOut(reserveIn, reserveOut, amountIn, 30)
		if err != nil {
			continue
		}
		net := curve.NetAmountIn(amountIn, 30)
		// out * (reserveIn + amountIn) <= net * reserveOut
		lhs := out.Mul(reserveIn.Add(amountIn))
		rhs := net.Mul(reserveOut)
		require.True(t, lhs.LTE(rhs), "rounding must not credit the trader")
	}
}
