package eventmatcher

import "errors"

var (
	ErrProbabilityNotSet     = errors.New("event probability not set, oracle sync required")
	ErrOracleStale           = errors.New("event oracle stale")
	ErrOracleMismatch        = errors.New("oracle account does not match stored reference")
	ErrInvalidProbability    = errors.New("probability exceeds scale")
	ErrInvalidSignalSeverity = errors.New("signal severity out of range")
	ErrInvalidSpreadConfig   = errors.New("base spread exceeds max spread")
	ErrMarketResolved        = errors.New("market already resolved")
	ErrInvalidOutcome        = errors.New("resolution outcome must be 0 or 1")
)
