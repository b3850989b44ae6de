package types

import (
	"cosmossdk.io/math"
)

// PoolView is a read-only snapshot exposed to the registry and analytics
// collaborators.
type PoolView struct {
	ID          uint64
	AssetA      string
	AssetB      string
	FeeTierBps  uint32
	Fee         FeeConfig
	Curve       CurveType
	CurveParams CurveParams

	ReserveA    math.Int
	ReserveB    math.Int
	TotalShares math.Int

	AccFeePerShareA math.Int
	AccFeePerShareB math.Int
	ProtocolFeesA   math.Int
	ProtocolFeesB   math.Int
	CreatorFeesA    math.Int
	CreatorFeesB    math.Int

	Creator string
	Paused  bool
}

// PositionView is a pure derived read of one position: its pro-rata value,
// pending fee claims, and impermanent loss. Never persisted.
type PositionView struct {
	PoolID uint64
	Owner  string
	Shares math.Int

	// ValueA/B are the amounts a full removal would return, before fees.
	ValueA math.Int
	ValueB math.Int

	PendingFeeA math.Int
	PendingFeeB math.Int

	// ImpermanentLossBps compares holding the original deposit against the
	// current position value (fees included) at the current reserve ratio.
	// Negative values are a gain.
	ImpermanentLossBps int64

	OriginalDepositA math.Int
	OriginalDepositB math.Int
}

// SwapQuote is the result of a preview: the full fee breakdown of a would-be
// swap with no state mutation.
type SwapQuote struct {
	Direction   SwapDirection
	AmountIn    math.Int
	AmountOut   math.Int
	FeeAmount   math.Int
	LpFee       math.Int
	ProtocolFee math.Int
	CreatorFee  math.Int

	// SpotPriceAfter is the marginal price (in per out) after the swap.
	SpotPriceAfter math.LegacyDec
}
