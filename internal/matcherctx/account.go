// Package matcherctx implements the shared context-account protocol used by
// every Percolator matcher: the 320-byte binary layout, the authorization
// checks performed before any state mutation, and the execution-price math.
package matcherctx

import (
	solana "github.com/gagliardetto/solana-go"
)

// Account mirrors what the host runtime hands a matcher on invocation: a key,
// the signer/writable flags the runtime verified, and the raw account bytes.
type Account struct {
	Key      solana.PublicKey
	Signer   bool
	Writable bool
	Data     []byte
}

// Clock carries the host time values handlers need. Injected rather than read
// from a global so pricing and window logic are testable without a live clock.
type Clock struct {
	Slot uint64 // monotonic host slot, used for staleness windows
	Unix int64  // wall-clock seconds, used for expiry and day boundaries
}

// Instruction tags shared by all matcher families.
const (
	TagMatch   byte = 0x00
	TagInit    byte = 0x02
	TagSync    byte = 0x03
	TagResolve byte = 0x04
)
