package volmatcher

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"

	"percolator-go/internal/matcherctx"
)

// InitParams configures a new vol matcher context (tag 0x02 payload).
type InitParams struct {
	Mode            byte // 0=RealizedVol, 1=ImpliedVol
	BaseSpreadBps   uint32
	VovSpreadBps    uint32
	MaxSpreadBps    uint32
	ImpactKBps      uint32
	LiquidityE6     matcherctx.U128
	MaxFill         matcherctx.U128
	VarianceTracker solana.PublicKey
	VolIndex        solana.PublicKey
}

// Instruction renders the full tagged instruction bytes for this payload.
func (p InitParams) Instruction() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint8(matcherctx.TagInit); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(p.Mode); err != nil {
		return nil, err
	}
	for _, v := range []uint32{p.BaseSpreadBps, p.VovSpreadBps, p.MaxSpreadBps, p.ImpactKBps} {
		if err := enc.WriteUint32(v, bin.LE); err != nil {
			return nil, err
		}
	}
	for _, u := range []matcherctx.U128{p.LiquidityE6, p.MaxFill} {
		if err := enc.WriteUint64(u.Lo, bin.LE); err != nil {
			return nil, err
		}
		if err := enc.WriteUint64(u.Hi, bin.LE); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteBytes(p.VarianceTracker[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(p.VolIndex[:], false); err != nil {
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
	for _, dst := range []*uint32{&p.BaseSpreadBps, &p.VovSpreadBps, &p.MaxSpreadBps, &p.ImpactKBps} {
		if *dst, err = dec.ReadUint32(bin.LE); err != nil {
			return p, err
		}
	}
	for _, dst := range []*matcherctx.U128{&p.LiquidityE6, &p.MaxFill} {
		if dst.Lo, err = dec.ReadUint64(bin.LE); err != nil {
			return p, err
		}
		if dst.Hi, err = dec.ReadUint64(bin.LE); err != nil {
			return p, err
		}
	}
	for _, dst := range []*solana.PublicKey{&p.VarianceTracker, &p.VolIndex} {
		raw, err := dec.ReadNBytes(32)
		if err != nil {
			return p, err
		}
		copy(dst[:], raw)
	}
	return p, nil
}

// SyncParams carries a fresh signal snapshot from the updater (tag 0x03).
type SyncParams struct {
	CurrentVolBps  uint64
	MarkPriceE6    uint64
	Regime         byte
	Vol7dAvgBps    uint64
	Vol30dAvgBps   uint64
}

// Instruction renders the full tagged instruction bytes for this payload.
func (p SyncParams) Instruction() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint8(matcherctx.TagSync); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(p.CurrentVolBps, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(p.MarkPriceE6, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(p.Regime); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(p.Vol7dAvgBps, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(p.Vol30dAvgBps, bin.LE); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSyncParams(data []byte) (SyncParams, error) {
	var p SyncParams
	dec := bin.NewBinDecoder(data)
	var err error
	if p.CurrentVolBps, err = dec.ReadUint64(bin.LE); err != nil {
		return p, err
	}
	if p.MarkPriceE6, err = dec.ReadUint64(bin.LE); err != nil {
		return p, err
	}
	if p.Regime, err = dec.ReadUint8(); err != nil {
		return p, err
	}
	if p.Vol7dAvgBps, err = dec.ReadUint64(bin.LE); err != nil {
		return p, err
	}
	if p.Vol30dAvgBps, err = dec.ReadUint64(bin.LE); err != nil {
		return p, err
	}
	return p, nil
}
