// Package volmatcher prices volatility derivatives: the cached signal is an
// annualized volatility level and spreads widen with the volatility regime.
package volmatcher

import (
	solana "github.com/gagliardetto/solana-go"
)

// Magic is the protocol tag for this family: "VOLMATCH" as u64.
const Magic uint64 = 0x564F4C4D41544348

// Variant-specific field offsets into the 320-byte context.
const (
	baseSpreadOffset      = 112 // u32
	vovSpreadOffset       = 116 // u32: vol-of-vol spread
	maxSpreadOffset       = 120 // u32
	impactKOffset         = 124 // u32
	currentVolOffset      = 128 // u64: current vol in bps
	markPriceOffset       = 136 // u64: vol mark price in e6
	lastUpdateSlotOffset  = 144 // u64
	regimeOffset          = 152 // u8
	vol7dAvgOffset        = 160 // u64
	vol30dAvgOffset       = 168 // u64
	liquidityOffset       = 176 // u128
	maxFillOffset         = 192 // u128
	varianceTrackerOffset = 208 // pubkey
	volIndexOffset        = 240 // pubkey
	reservedOffset        = 272
)

// maxStalenessSlots bounds how old the cached signal may be before a match is
// rejected. Self-healing: the next successful sync clears the condition.
const maxStalenessSlots = 100

// Regime classifies current volatility conditions.
type Regime uint8

const (
	RegimeVeryLow Regime = iota
	RegimeLow
	RegimeNormal
	RegimeHigh
	RegimeExtreme
)

// RegimeFromByte maps a stored byte to a Regime. Out-of-range values default
// to Normal rather than failing a match on a corrupt-but-recoverable field.
func RegimeFromByte(v byte) Regime {
	if v > byte(RegimeExtreme) {
		return RegimeNormal
	}
	return Regime(v)
}

// SpreadMultiplier returns the percentage scaling applied to the vol-of-vol
// spread: 100 means 1.0x.
func (r Regime) SpreadMultiplier() uint64 {
	switch r {
	case RegimeVeryLow:
		return 50
	case RegimeLow:
		return 75
	case RegimeHigh:
		return 150
	case RegimeExtreme:
		return 250
	default:
		return 100
	}
}

func (r Regime) String() string {
	switch r {
	case RegimeVeryLow:
		return "very_low"
	case RegimeLow:
		return "low"
	case RegimeNormal:
		return "normal"
	case RegimeHigh:
		return "high"
	case RegimeExtreme:
		return "extreme"
	}
	return "unknown"
}

func readVarianceTracker(data []byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[varianceTrackerOffset : varianceTrackerOffset+32])
}

func readVolIndex(data []byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[volIndexOffset : volIndexOffset+32])
}
