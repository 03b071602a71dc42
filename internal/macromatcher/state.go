// Package macromatcher prices real-rate derivatives: the cached signal is a
// macro index derived from a signed real interest rate, and spreads widen
// with the macro regime plus an anomaly-severity adjustment.
package macromatcher

import (
	solana "github.com/gagliardetto/solana-go"
)

// Magic is the protocol tag for this family: "MACOMATC" as u64.
const Magic uint64 = 0x4D41434F4D415443

// Variant-specific field offsets into the 320-byte context.
const (
	baseSpreadOffset        = 112 // u32
	regimeSpreadOffset      = 116 // u32: spread component scaled by regime
	maxSpreadOffset         = 120 // u32
	impactKOffset           = 124 // u32
	currentIndexOffset      = 128 // u64: real-rate index mark price (e6)
	componentsPackedOffset  = 136 // u64: nominal(high32) | inflation(low32)
	lastUpdateSlotOffset    = 144 // u64
	regimeOffset            = 152 // u8
	signalSeverityOffset    = 160 // u64 (0-3)
	signalAdjSpreadOffset   = 168 // u64
	liquidityOffset         = 176 // u128
	maxFillOffset           = 192 // u128
	oracleOffset            = 208 // pubkey
	totalVolumeOffset       = 240 // u128
	totalTradesOffset       = 256 // u64
	reservedOffset          = 264
)

// rateOffsetBps shifts the signed real rate so the mark price stays positive
// down to roughly -5%.
const rateOffsetBps int64 = 500

// maxStalenessSlots bounds signal age for matching.
const maxStalenessSlots = 150

// Signal severity levels carried alongside the index.
const (
	SignalNone     uint64 = 0
	SignalLow      uint64 = 1
	SignalHigh     uint64 = 2
	SignalCritical uint64 = 3
)

// Regime classifies the macroeconomic environment.
type Regime uint8

const (
	RegimeExpansion Regime = iota
	RegimeStagnation
	RegimeCrisis
	RegimeRecovery
)

// RegimeFromByte maps a stored byte to a Regime, defaulting out-of-range
// values to the Stagnation baseline.
func RegimeFromByte(v byte) Regime {
	if v > byte(RegimeRecovery) {
		return RegimeStagnation
	}
	return Regime(v)
}

// SpreadMultiplier returns the percentage scaling applied to the regime
// spread component.
func (r Regime) SpreadMultiplier() uint64 {
	switch r {
	case RegimeExpansion:
		return 60
	case RegimeCrisis:
		return 200
	case RegimeRecovery:
		return 125
	default:
		return 100
	}
}

func (r Regime) String() string {
	switch r {
	case RegimeExpansion:
		return "expansion"
	case RegimeStagnation:
		return "stagnation"
	case RegimeCrisis:
		return "crisis"
	case RegimeRecovery:
		return "recovery"
	}
	return "unknown"
}

// ComputeMarkPrice derives the e6 mark price from a signed real rate in bps:
// (rate + 500) * 10000, floored at zero below roughly -5%.
func ComputeMarkPrice(realRateBps int64) uint64 {
	shifted := realRateBps + rateOffsetBps
	if shifted <= 0 {
		return 0
	}
	return uint64(shifted) * 10_000
}

// PackComponents stores the nominal rate in the high 32 bits and the
// inflation rate in the low 32 bits of the cached component word.
func PackComponents(nominalBps, inflationBps uint32) uint64 {
	return uint64(nominalBps)<<32 | uint64(inflationBps)
}

// UnpackComponents reverses PackComponents.
func UnpackComponents(packed uint64) (nominalBps, inflationBps uint32) {
	return uint32(packed >> 32), uint32(packed)
}

func readOracle(data []byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[oracleOffset : oracleOffset+32])
}
