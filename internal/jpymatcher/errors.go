package jpymatcher

import "errors"

var (
	ErrPriceNotSynced           = errors.New("jpy mark price not set, oracle update required")
	ErrZeroPrice                = errors.New("oracle update rejects zero price")
	ErrInsufficientKycTier      = errors.New("counterparty kyc tier below required minimum")
	ErrIdentityExpired          = errors.New("counterparty identity record expired")
	ErrJurisdictionBlocked      = errors.New("counterparty jurisdiction is blocked")
	ErrJurisdictionMismatch     = errors.New("counterparty and provider jurisdictions differ")
	ErrDailyCapExceeded         = errors.New("daily volume cap exceeded")
	ErrIdentityRecordTooSmall   = errors.New("identity record shorter than layout")
	ErrIdentityRegistryMismatch = errors.New("identity record not issued by bound registry")
	ErrInvalidSpreadConfig      = errors.New("base spread exceeds max spread")
)
