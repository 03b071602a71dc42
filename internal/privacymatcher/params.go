package privacymatcher

import (
	"bytes"

	bin "github.com/gagliardetto/binary"

	"percolator-go/internal/matcherctx"
)

// InitParams configures a new solver matcher context (tag 0x02 payload).
// The solver identity itself arrives as an account, not payload, so the host
// can verify it exists.
type InitParams struct {
	Mode          byte
	BaseSpreadBps uint32
	MaxSpreadBps  uint32
	SolverFeeBps  uint32
	SolverEncKey  [32]byte
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
	for _, v := range []uint32{p.BaseSpreadBps, p.MaxSpreadBps, p.SolverFeeBps} {
		if err := enc.WriteUint32(v, bin.LE); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteBytes(p.SolverEncKey[:], false); err != nil {
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
	for _, dst := range []*uint32{&p.BaseSpreadBps, &p.MaxSpreadBps, &p.SolverFeeBps} {
		if *dst, err = dec.ReadUint32(bin.LE); err != nil {
			return p, err
		}
	}
	raw, err := dec.ReadNBytes(32)
	if err != nil {
		return p, err
	}
	copy(p.SolverEncKey[:], raw)
	return p, nil
}

// MatchInstruction renders the tag 0x00 payload carrying the trade size in e6
// notional units for the lifetime volume counter.
func MatchInstruction(sizeE6 uint64) []byte {
	data := make([]byte, 9)
	data[0] = matcherctx.TagMatch
	matcherctx.PutU64(data, 1, sizeE6)
	return data
}

// PriceUpdateInstruction renders the tag 0x03 payload pushing a fresh mark.
func PriceUpdateInstruction(priceE6 uint64) []byte {
	data := make([]byte, 9)
	data[0] = matcherctx.TagSync
	matcherctx.PutU64(data, 1, priceE6)
	return data
}
