// Package eventmatcher prices binary-event derivatives: the cached signal is
// an event probability on a 1,000,000 denominator, the mark price equals the
// probability directly, and spreads widen as the probability approaches either
// boundary. Markets resolve one way into a terminal outcome.
package eventmatcher

import (
	solana "github.com/gagliardetto/solana-go"
)

// Magic is the protocol tag for this family: "EVNTMATC" as u64.
const Magic uint64 = 0x45564E544D415443

// Variant-specific field offsets into the 320-byte context.
const (
	baseSpreadOffset      = 112 // u32
	edgeSpreadOffset      = 116 // u32: spread component scaled by the edge factor
	maxSpreadOffset       = 120 // u32
	impactKOffset         = 124 // u32
	probabilityOffset     = 128 // u64: event probability (e6)
	probMarkOffset        = 136 // u64: mark price snapshot, equals probability
	lastUpdateSlotOffset  = 144 // u64
	resolutionTsOffset    = 152 // i64: unix seconds, zero while active
	isResolvedOffset      = 160 // u8
	outcomeOffset         = 161 // u8: 0 or 1, meaningful only once resolved
	signalSeverityOffset  = 168 // u64
	signalAdjSpreadOffset = 176 // u64
	liquidityOffset       = 184 // u128
	maxFillOffset         = 200 // u128
	oracleOffset          = 216 // pubkey
	reservedOffset        = 248
)

// ProbScale is the probability denominator: 1,000,000 means certainty.
const ProbScale uint64 = 1_000_000

// edgeFactorCap bounds the widening multiplier near the boundaries at 10x.
const edgeFactorCap uint64 = 10_000_000

// maxStalenessSlots bounds signal age for matching. Event feeds move slower
// than vol or rates, so the window is wider.
const maxStalenessSlots = 200

// Signal severity levels carried alongside the probability.
const (
	SignalNone     uint64 = 0
	SignalLow      uint64 = 1
	SignalHigh     uint64 = 2
	SignalCritical uint64 = 3
)

// EdgeFactor returns the e6-scaled spread multiplier for a probability.
// The factor is 1,000,000 (1.0x) at p = 500,000 and grows toward the cap as
// p approaches either boundary. 4*p*(ProbScale-p) tops out at 1e12, so the
// intermediate fits a u64.
func EdgeFactor(p uint64) uint64 {
	if p > ProbScale {
		p = ProbScale
	}
	denom := 4 * p * (ProbScale - p) / ProbScale
	if denom == 0 {
		return edgeFactorCap
	}
	return min(ProbScale*ProbScale/denom, edgeFactorCap)
}

func readOracle(data []byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[oracleOffset : oracleOffset+32])
}
