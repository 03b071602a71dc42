package jpymatcher

import (
	solana "github.com/gagliardetto/solana-go"

	"percolator-go/internal/matcherctx"
)

// Identity record account layout: 8-byte discriminator, issuing registry
// pubkey, then the compliance fields.
const (
	recordRegistryOffset     = 8  // pubkey
	recordKycTierOffset      = 40 // u8
	recordExpiryOffset       = 48 // i64 unix seconds, 0 = never expires
	recordJurisdictionOffset = 56 // u8 code 0-7
	recordSize               = 64
)

// IdentityRecord is the decoded view of a counterparty's KYC record.
type IdentityRecord struct {
	Registry     solana.PublicKey
	Tier         KycTier
	Expiry       int64
	Jurisdiction uint8
}

// ParseIdentityRecord decodes a registry-issued identity account.
func ParseIdentityRecord(data []byte) (IdentityRecord, error) {
	if len(data) < recordSize {
		return IdentityRecord{}, ErrIdentityRecordTooSmall
	}
	return IdentityRecord{
		Registry:     solana.PublicKeyFromBytes(data[recordRegistryOffset : recordRegistryOffset+32]),
		Tier:         KycTier(data[recordKycTierOffset]),
		Expiry:       matcherctx.GetI64(data, recordExpiryOffset),
		Jurisdiction: data[recordJurisdictionOffset],
	}, nil
}

// EncodeIdentityRecord renders a record account image. Used by the keeper
// when provisioning test and sandbox identities.
func EncodeIdentityRecord(r IdentityRecord) []byte {
	data := make([]byte, recordSize)
	copy(data[recordRegistryOffset:recordRegistryOffset+32], r.Registry[:])
	data[recordKycTierOffset] = byte(r.Tier)
	matcherctx.PutI64(data, recordExpiryOffset, r.Expiry)
	data[recordJurisdictionOffset] = r.Jurisdiction
	return data
}
