package matcherctx

import "errors"

// Shared error taxonomy. Authorization failures are fatal to the call and
// never retried by the matcher; callers distinguish classes with errors.Is.
var (
	// ErrMissingSignature means the caller-supplied authorization key did not
	// sign the current call.
	ErrMissingSignature = errors.New("authorization key must be a signer")

	// ErrUninitialized means the context's protocol tag does not match the
	// expected variant, or the account is smaller than CtxSize.
	ErrUninitialized = errors.New("context not initialized or wrong matcher family")

	// ErrAuthorityMismatch means the caller-supplied key differs from the key
	// bound to the context at initialization.
	ErrAuthorityMismatch = errors.New("authorization key does not match stored key")

	// ErrAlreadyInitialized guards the write-once initialization invariant.
	ErrAlreadyInitialized = errors.New("context already initialized")

	ErrNotWritable        = errors.New("context account not writable")
	ErrAccountTooSmall    = errors.New("context account smaller than required size")
	ErrNotEnoughAccounts  = errors.New("not enough accounts supplied")
	ErrInvalidInstruction = errors.New("invalid instruction data")
	ErrArithmeticOverflow = errors.New("arithmetic overflow in price computation")
)
