package volmatcher

import "errors"

var (
	ErrOracleNotSynced       = errors.New("vol mark price not set, oracle sync required")
	ErrOracleStale           = errors.New("vol oracle stale")
	ErrOracleAccountMismatch = errors.New("oracle account does not match stored reference")
	ErrInvalidRegime         = errors.New("volatility regime out of range")
	ErrInvalidSpreadConfig   = errors.New("base spread exceeds max spread")
)
