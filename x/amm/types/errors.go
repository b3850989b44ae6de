package types

import (
	"cosmossdk.io/errors"
)

// AMM module sentinel errors
var (
	ErrInvalidAmount         = errors.Register(ModuleName, 1, "invalid amount")
	ErrSlippageExceeded      = errors.Register(ModuleName, 2, "slippage exceeded")
	ErrExcessiveSlippage     = errors.Register(ModuleName, 3, "realized price worse than limit")
	ErrDeadlineExceeded      = errors.Register(ModuleName, 4, "deadline exceeded")
	ErrInvariantViolation    = errors.Register(ModuleName, 5, "pool invariant violated")
	ErrInsufficientLiquidity = errors.Register(ModuleName, 6, "insufficient liquidity")
	ErrWrongPool             = errors.Register(ModuleName, 7, "position does not belong to pool")
	ErrInvalidAmplification  = errors.Register(ModuleName, 8, "invalid amplification coefficient")
	ErrConvergenceFailure    = errors.Register(ModuleName, 9, "newton iteration did not converge")
	ErrPoolPaused            = errors.Register(ModuleName, 10, "pool is paused")
	ErrPoolNotFound          = errors.Register(ModuleName, 11, "pool not found")
	ErrPoolAlreadyExists     = errors.Register(ModuleName, 12, "pool already exists")
	ErrPositionNotFound      = errors.Register(ModuleName, 13, "position not found")
	ErrUnauthorized          = errors.Register(ModuleName, 14, "unauthorized")
	ErrOverflow              = errors.Register(ModuleName, 15, "arithmetic overflow")
	ErrInvalidPoolState      = errors.Register(ModuleName, 16, "invalid pool state")
	ErrInvalidAsset          = errors.Register(ModuleName, 17, "invalid asset denomination")
)
