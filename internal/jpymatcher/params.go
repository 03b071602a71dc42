package jpymatcher

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"

	"percolator-go/internal/matcherctx"
)

// InitParams configures a new compliance-gated matcher context (tag 0x02
// payload).
type InitParams struct {
	Mode                    byte
	MinKycTier              KycTier
	RequireSameJurisdiction bool
	BlockedJurisdictions    uint8 // bitmask over codes 0-7
	BaseSpreadBps           uint32
	KycDiscountBps          uint32
	MaxSpreadBps            uint32
	ImpactKBps              uint32
	DailyCap                uint64
	LiquidityE6             matcherctx.U128
	MaxFill                 matcherctx.U128
	KycRegistry             solana.PublicKey
}

// Instruction renders the full tagged instruction bytes for this payload.
func (p InitParams) Instruction() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	sameJur := byte(0)
	if p.RequireSameJurisdiction {
		sameJur = 1
	}
	for _, b := range []byte{matcherctx.TagInit, p.Mode, byte(p.MinKycTier), sameJur, p.BlockedJurisdictions} {
		if err := enc.WriteUint8(b); err != nil {
			return nil, err
		}
	}
	for _, v := range []uint32{p.BaseSpreadBps, p.KycDiscountBps, p.MaxSpreadBps, p.ImpactKBps} {
		if err := enc.WriteUint32(v, bin.LE); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteUint64(p.DailyCap, bin.LE); err != nil {
		return nil, err
	}
	for _, u := range []matcherctx.U128{p.LiquidityE6, p.MaxFill} {
		if err := enc.WriteUint64(u.Lo, bin.LE); err != nil {
			return nil, err
		}
		if err := enc.WriteUint64(u.Hi, bin.LE); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteBytes(p.KycRegistry[:], false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeInitParams(data []byte) (InitParams, error) {
	var p InitParams
	dec := bin.NewBinDecoder(data)
	var err error
	if p.Mode, err = dec.ReadUint8(); err != nil {
		return p, err
	}
	tier, err := dec.ReadUint8()
	if err != nil {
		return p, err
	}
	p.MinKycTier = KycTier(tier)
	sameJur, err := dec.ReadUint8()
	if err != nil {
		return p, err
	}
	p.RequireSameJurisdiction = sameJur != 0
	if p.BlockedJurisdictions, err = dec.ReadUint8(); err != nil {
		return p, err
	}
	for _, dst := range []*uint32{&p.BaseSpreadBps, &p.KycDiscountBps, &p.MaxSpreadBps, &p.ImpactKBps} {
		if *dst, err = dec.ReadUint32(bin.LE); err != nil {
			return p, err
		}
	}
	if p.DailyCap, err = dec.ReadUint64(bin.LE); err != nil {
		return p, err
	}
	for _, dst := range []*matcherctx.U128{&p.LiquidityE6, &p.MaxFill} {
		if dst.Lo, err = dec.ReadUint64(bin.LE); err != nil {
			return p, err
		}
		if dst.Hi, err = dec.ReadUint64(bin.LE); err != nil {
			return p, err
		}
	}
	raw, err := dec.ReadNBytes(32)
	if err != nil {
		return p, err
	}
	copy(p.KycRegistry[:], raw)
	return p, nil
}

// MatchInstruction renders the tag 0x00 payload carrying the trade size in e6
// notional units, consumed by the daily-cap check.
func MatchInstruction(sizeE6 uint64) []byte {
	data := make([]byte, 9)
	data[0] = matcherctx.TagMatch
	matcherctx.PutU64(data, 1, sizeE6)
	return data
}

// OracleUpdateInstruction renders the tag 0x03 payload refreshing the mark.
func OracleUpdateInstruction(priceE6 uint64) []byte {
	data := make([]byte, 9)
	data[0] = matcherctx.TagSync
	matcherctx.PutU64(data, 1, priceE6)
	return data
}
