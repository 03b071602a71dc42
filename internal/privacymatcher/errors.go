package privacymatcher

import "errors"

var (
	ErrInvalidSpreadConfig = errors.New("base spread exceeds max spread")
	ErrPriceNotSynced      = errors.New("mark price not set, solver update required")
	ErrZeroPrice           = errors.New("solver update rejects zero price")
	ErrSolverMismatch      = errors.New("signer is not the authorized solver")
)
