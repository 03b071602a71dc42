// Package privacymatcher prices solver-routed flow: the pricing rule is a
// flat solver fee on top of the base spread, and the interesting machinery
// lives off-protocol where encrypted order intents are decrypted and
// validated by the single authorized solver before any signal update lands
// here.
package privacymatcher

import (
	solana "github.com/gagliardetto/solana-go"
)

// Magic is the protocol tag for this family: "PRIVMATC" as u64.
const Magic uint64 = 0x505249564D415443

// Variant-specific field offsets into the 320-byte context.
const (
	solverOffset        = 112 // pubkey: the only identity allowed to push prices
	baseSpreadOffset    = 144 // u32
	maxSpreadOffset     = 148 // u32
	solverFeeOffset     = 152 // u32: flat widening component
	oraclePriceOffset   = 156 // u64: solver-pushed mark (e6)
	lastExecPriceOffset = 164 // u64
	totalVolumeOffset   = 172 // u128
	totalOrdersOffset   = 188 // u64
	solverEncKeyOffset  = 196 // 32 bytes: X25519 key intents are sealed to
	reservedOffset      = 228
)

func readSolver(data []byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[solverOffset : solverOffset+32])
}

// SolverEncKey returns the X25519 public key counterparties seal intents to.
func SolverEncKey(data []byte) [32]byte {
	var key [32]byte
	copy(key[:], data[solverEncKeyOffset:solverEncKeyOffset+32])
	return key
}
