package matcherctx

import (
	"encoding/binary"
	"math/bits"
)

// CtxSize is the exact size of every matcher context account. The layout is
// little-endian and bit-exact across implementations; a mismatch here is a
// silent correctness bug, not a crash.
const CtxSize = 320

// Shared header layout. Bytes 112..320 are variant-specific.
const (
	ReturnSlotOffset = 0  // 64 bytes; last exec price lives in the first 8
	ReturnSlotSize   = 64
	MagicOffset      = 64 // u64: per-variant protocol tag
	VersionOffset    = 72 // u32: always 1
	ModeOffset       = 76 // u8: variant-specific sub-mode
	AuthorityOffset  = 80 // 32 bytes: write-once authorization key
)

// SchemaVersion is the only version this implementation reads or writes.
const SchemaVersion uint32 = 1

func GetU32(data []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(data[off : off+4])
}

func PutU32(data []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(data[off:off+4], v)
}

func GetU64(data []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(data[off : off+8])
}

func PutU64(data []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(data[off:off+8], v)
}

func GetI64(data []byte, off int) int64 {
	return int64(binary.LittleEndian.Uint64(data[off : off+8]))
}

func PutI64(data []byte, off int, v int64) {
	binary.LittleEndian.PutUint64(data[off:off+8], uint64(v))
}

// AddSat64 returns a + b, saturating at the maximum uint64 instead of
// wrapping. Spread sums use it so an adversarial adjustment can never wrap a
// total below its base component.
func AddSat64(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	return sum
}

// U128 is a little-endian 128-bit counter. Lifetime volume fields outlive the
// u64 range on busy markets, so the layout reserves 16 bytes for them.
type U128 struct {
	Lo uint64
	Hi uint64
}

// AddSat returns u + v, saturating at the maximum representable value.
func (u U128) AddSat(v uint64) U128 {
	lo, carry := bits.Add64(u.Lo, v, 0)
	hi, carry := bits.Add64(u.Hi, 0, carry)
	if carry != 0 {
		return U128{Lo: ^uint64(0), Hi: ^uint64(0)}
	}
	return U128{Lo: lo, Hi: hi}
}

// IsZero reports whether the counter is zero.
func (u U128) IsZero() bool { return u.Lo == 0 && u.Hi == 0 }

func GetU128(data []byte, off int) U128 {
	return U128{
		Lo: binary.LittleEndian.Uint64(data[off : off+8]),
		Hi: binary.LittleEndian.Uint64(data[off+8 : off+16]),
	}
}

func PutU128(data []byte, off int, v U128) {
	binary.LittleEndian.PutUint64(data[off:off+8], v.Lo)
	binary.LittleEndian.PutUint64(data[off+8:off+16], v.Hi)
}

// Zero clears data[from:to].
func Zero(data []byte, from, to int) {
	for i := from; i < to; i++ {
		data[i] = 0
	}
}
