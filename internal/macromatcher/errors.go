package macromatcher

import "errors"

var (
	ErrIndexNotSynced        = errors.New("macro index not set, oracle sync required")
	ErrOracleStale           = errors.New("macro oracle stale")
	ErrOracleMismatch        = errors.New("oracle account does not match stored reference")
	ErrInvalidRegime         = errors.New("macro regime out of range")
	ErrInvalidSignalSeverity = errors.New("signal severity out of range")
	ErrInvalidSpreadConfig   = errors.New("base spread exceeds max spread")
)
