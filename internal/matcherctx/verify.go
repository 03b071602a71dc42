package matcherctx

import (
	"math/bits"

	solana "github.com/gagliardetto/solana-go"
)

// ReadMagic returns the protocol tag stored in the context, or 0 when the
// buffer is too short to hold one.
func ReadMagic(data []byte) uint64 {
	if len(data) < MagicOffset+8 {
		return 0
	}
	return GetU64(data, MagicOffset)
}

// ReadAuthority returns the authorization key bound to the context.
func ReadAuthority(data []byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[AuthorityOffset : AuthorityOffset+32])
}

// VerifyMagic reports whether the context is full-sized and carries the
// expected protocol tag. Truncated or foreign accounts fail here.
func VerifyMagic(data []byte, expected uint64) bool {
	if len(data) < CtxSize {
		return false
	}
	return ReadMagic(data) == expected
}

// VerifyAuthority is the security check every state-mutating operation runs
// before touching context fields:
//
//  1. the authorization account must have signed the call
//  2. the context must carry the expected protocol tag (and be full-sized)
//  3. the authorization key must equal the key stored at initialization
//
// It is shared by all matcher families so a forged call can never be replayed
// against another family's context. Pure read-side guard, no side effects.
func VerifyAuthority(auth, ctxAcc *Account, expectedMagic uint64) error {
	if !auth.Signer {
		return ErrMissingSignature
	}
	if !VerifyMagic(ctxAcc.Data, expectedMagic) {
		return ErrUninitialized
	}
	if !auth.Key.Equals(ReadAuthority(ctxAcc.Data)) {
		return ErrAuthorityMismatch
	}
	return nil
}

// VerifyInitPreconditions checks that a context account is writable, large
// enough, and carries no protocol tag at all. Any non-zero tag rejects, so a
// live context of one family can never be re-initialized as another.
func VerifyInitPreconditions(ctxAcc *Account) error {
	if !ctxAcc.Writable {
		return ErrNotWritable
	}
	if len(ctxAcc.Data) < CtxSize {
		return ErrAccountTooSmall
	}
	if ReadMagic(ctxAcc.Data) != 0 {
		return ErrAlreadyInitialized
	}
	return nil
}

// WriteHeader writes the shared header during initialization: zeroed return
// slot, protocol tag, schema version, mode byte, padding, authorization key.
func WriteHeader(data []byte, magic uint64, mode byte, authority solana.PublicKey) {
	Zero(data, ReturnSlotOffset, ReturnSlotOffset+ReturnSlotSize)
	PutU64(data, MagicOffset, magic)
	PutU32(data, VersionOffset, SchemaVersion)
	data[ModeOffset] = mode
	Zero(data, ModeOffset+1, AuthorityOffset)
	copy(data[AuthorityOffset:AuthorityOffset+32], authority[:])
}

// WriteExecPrice stores an execution price in the first 8 bytes of the return
// slot. This is how a matcher hands the price back to the host.
func WriteExecPrice(data []byte, price uint64) {
	PutU64(data, ReturnSlotOffset, price)
}

// ReadExecPrice returns the most recently written execution price.
func ReadExecPrice(data []byte) uint64 {
	return GetU64(data, ReturnSlotOffset)
}

// ComputeExecPrice applies a spread in basis points to a base-unit price:
// price * (10000 + spreadBps) / 10000, with a 128-bit intermediate so large
// mark prices cannot overflow mid-computation.
func ComputeExecPrice(price, spreadBps uint64) (uint64, error) {
	mult := 10_000 + spreadBps
	hi, lo := bits.Mul64(price, mult)
	if hi >= 10_000 {
		// Quotient would not fit in 64 bits.
		return 0, ErrArithmeticOverflow
	}
	q, _ := bits.Div64(hi, lo, 10_000)
	return q, nil
}
