package eventmatcher

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"

	"percolator-go/internal/matcherctx"
)

// InitParams configures a new event matcher context (tag 0x02 payload).
// InitialProbE6 seeds the signal so a freshly-listed market can quote before
// the first oracle sync.
type InitParams struct {
	Mode          byte
	BaseSpreadBps uint32
	EdgeSpreadBps uint32
	MaxSpreadBps  uint32
	ImpactKBps    uint32
	InitialProbE6 uint64
	LiquidityE6   matcherctx.U128
	MaxFill       matcherctx.U128
	Oracle        solana.PublicKey
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
	for _, v := range []uint32{p.BaseSpreadBps, p.EdgeSpreadBps, p.MaxSpreadBps, p.ImpactKBps} {
		if err := enc.WriteUint32(v, bin.LE); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteUint64(p.InitialProbE6, bin.LE); err != nil {
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
	if err := enc.WriteBytes(p.Oracle[:], false); err != nil {
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
	for _, dst := range []*uint32{&p.BaseSpreadBps, &p.EdgeSpreadBps, &p.MaxSpreadBps, &p.ImpactKBps} {
		if *dst, err = dec.ReadUint32(bin.LE); err != nil {
			return p, err
		}
	}
	if p.InitialProbE6, err = dec.ReadUint64(bin.LE); err != nil {
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
	copy(p.Oracle[:], raw)
	return p, nil
}

// SyncParams carries a fresh probability snapshot plus the anomaly signal pair.
type SyncParams struct {
	ProbE6          uint64
	SignalSeverity  uint64
	SignalAdjSpread uint64
}

// Instruction renders the full tagged instruction bytes for this payload.
func (p SyncParams) Instruction() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint8(matcherctx.TagSync); err != nil {
		return nil, err
	}
	for _, v := range []uint64{p.ProbE6, p.SignalSeverity, p.SignalAdjSpread} {
		if err := enc.WriteUint64(v, bin.LE); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeSyncParams(data []byte) (SyncParams, error) {
	var p SyncParams
	dec := bin.NewBinDecoder(data)
	var err error
	for _, dst := range []*uint64{&p.ProbE6, &p.SignalSeverity, &p.SignalAdjSpread} {
		if *dst, err = dec.ReadUint64(bin.LE); err != nil {
			return p, err
		}
	}
	return p, nil
}

// ResolveInstruction renders the tag 0x04 payload finalizing the market.
func ResolveInstruction(outcome byte) []byte {
	return []byte{matcherctx.TagResolve, outcome}
}
