// Package jpymatcher prices JPY-denominated derivatives behind a compliance
// gate: every match first runs a five-step KYC/jurisdiction eligibility
// pipeline against the counterparty's identity record, and institutional
// counterparties earn a spread discount.
package jpymatcher

import (
	solana "github.com/gagliardetto/solana-go"
)

// Magic is the protocol tag for this family: "JPYMATCH" as u64.
const Magic uint64 = 0x4A50594D41544348

// Variant-specific field offsets into the 320-byte context. The compliance
// knobs that fit a byte live in the header gap right after mode.
const (
	minKycTierOffset     = 77  // u8
	requireSameJurOffset = 78  // u8 bool
	kycRegistryOffset    = 112 // pubkey
	baseSpreadOffset     = 144 // u32
	kycDiscountOffset    = 148 // u32: subtracted for institutional tier
	maxSpreadOffset      = 152 // u32
	blockedJurOffset     = 156 // u8 bitmask over jurisdiction codes 0-7
	oraclePriceOffset    = 164 // u64: JPY mark price (e6)
	dailyCapOffset       = 172 // u64: per-day aggregate volume cap, 0 = unlimited
	dayVolumeOffset      = 180 // u64
	dayResetOffset       = 188 // i64: unix seconds of the last window reset
	impactKOffset        = 196 // u32
	liquidityOffset      = 200 // u128
	maxFillOffset        = 216 // u128
	reservedOffset       = 232
)

// secondsPerDay is the rolling volume window length.
const secondsPerDay int64 = 86_400

// KycTier orders counterparty verification levels.
type KycTier uint8

const (
	TierBasic KycTier = iota
	TierStandard
	TierEnhanced
	TierInstitutional
)

func (t KycTier) String() string {
	switch t {
	case TierBasic:
		return "basic"
	case TierStandard:
		return "standard"
	case TierEnhanced:
		return "enhanced"
	case TierInstitutional:
		return "institutional"
	}
	return "unknown"
}

// jurisdictionCount bounds the blocked-jurisdiction bitmask.
const jurisdictionCount = 8

func readKycRegistry(data []byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[kycRegistryOffset : kycRegistryOffset+32])
}
