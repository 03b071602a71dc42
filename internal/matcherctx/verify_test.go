package matcherctx

import (
	"bytes"
	"errors"
	"testing"

	solana "github.com/gagliardetto/solana-go"
)

const (
	testMagicPrivacy uint64 = 0x505249564D415443 // "PRIVMATC"
	testMagicVol     uint64 = 0x564F4C4D41544348 // "VOLMATCH"
	testMagicJpy     uint64 = 0x4A50594D41544348 // "JPYMATCH"
	testMagicEvent   uint64 = 0x45564E544D415443 // "EVNTMATC"
	testMagicMacro   uint64 = 0x4D41434F4D415443 // "MACOMATC"
)

func TestVerifyMagic(t *testing.T) {
	data := make([]byte, CtxSize)
	PutU64(data, MagicOffset, testMagicPrivacy)

	if !VerifyMagic(data, testMagicPrivacy) {
		t.Fatalf("expected magic to verify")
	}
	if VerifyMagic(data, 0x1234) {
		t.Fatalf("wrong magic must not verify")
	}
}

func TestVerifyMagicShortBuffer(t *testing.T) {
	data := make([]byte, 100)
	if VerifyMagic(data, testMagicPrivacy) {
		t.Fatalf("short buffer must not verify")
	}
	if ReadMagic(make([]byte, 50)) != 0 {
		t.Fatalf("short buffer magic should read as zero")
	}
}

func TestHeaderRoundtrip(t *testing.T) {
	data := make([]byte, CtxSize)
	authority := solana.NewWallet().PublicKey()

	WriteHeader(data, testMagicEvent, 1, authority)

	if !VerifyMagic(data, testMagicEvent) {
		t.Fatalf("header should pass magic verification")
	}
	if got := ReadAuthority(data); !got.Equals(authority) {
		t.Fatalf("authority mismatch: got %s want %s", got, authority)
	}
	if v := GetU32(data, VersionOffset); v != SchemaVersion {
		t.Fatalf("expected version %d, got %d", SchemaVersion, v)
	}
	if data[ModeOffset] != 1 {
		t.Fatalf("mode not preserved")
	}
	if !bytes.Equal(data[ReturnSlotOffset:ReturnSlotOffset+ReturnSlotSize], make([]byte, ReturnSlotSize)) {
		t.Fatalf("return slot should be zeroed")
	}
}

func TestVerifyAuthority(t *testing.T) {
	authority := solana.NewWallet().PublicKey()
	data := make([]byte, CtxSize)
	WriteHeader(data, testMagicVol, 0, authority)
	ctxAcc := &Account{Data: data, Writable: true}

	cases := []struct {
		name string
		auth *Account
		want error
	}{
		{"not a signer", &Account{Key: authority, Signer: false}, ErrMissingSignature},
		{"wrong key", &Account{Key: solana.NewWallet().PublicKey(), Signer: true}, ErrAuthorityMismatch},
		{"ok", &Account{Key: authority, Signer: true}, nil},
	}
	for _, tc := range cases {
		if err := VerifyAuthority(tc.auth, ctxAcc, testMagicVol); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.want)
		}
	}

	// Uninitialized context rejects before the key comparison runs.
	empty := &Account{Data: make([]byte, CtxSize), Writable: true}
	signer := &Account{Key: authority, Signer: true}
	if err := VerifyAuthority(signer, empty, testMagicVol); !errors.Is(err, ErrUninitialized) {
		t.Fatalf("expected ErrUninitialized, got %v", err)
	}
}

func TestCrossVariantIsolation(t *testing.T) {
	magics := []uint64{testMagicPrivacy, testMagicVol, testMagicJpy, testMagicEvent, testMagicMacro}
	for i := range magics {
		for j := range magics {
			if i != j && magics[i] == magics[j] {
				t.Fatalf("protocol tags must be unique")
			}
		}
	}

	authority := solana.NewWallet().PublicKey()
	auth := &Account{Key: authority, Signer: true}
	for _, magic := range magics {
		data := make([]byte, CtxSize)
		WriteHeader(data, magic, 0, authority)
		ctxAcc := &Account{Data: data, Writable: true}

		if err := VerifyAuthority(auth, ctxAcc, magic); err != nil {
			t.Fatalf("own magic should verify: %v", err)
		}
		for _, other := range magics {
			if other == magic {
				continue
			}
			if err := VerifyAuthority(auth, ctxAcc, other); !errors.Is(err, ErrUninitialized) {
				t.Fatalf("context tagged %#x must be rejected by family %#x, got %v", magic, other, err)
			}
		}
	}
}

func TestVerifyInitPreconditions(t *testing.T) {
	authority := solana.NewWallet().PublicKey()

	fresh := &Account{Data: make([]byte, CtxSize), Writable: true}
	if err := VerifyInitPreconditions(fresh); err != nil {
		t.Fatalf("fresh account should pass: %v", err)
	}

	readOnly := &Account{Data: make([]byte, CtxSize)}
	if err := VerifyInitPreconditions(readOnly); !errors.Is(err, ErrNotWritable) {
		t.Fatalf("expected ErrNotWritable, got %v", err)
	}

	small := &Account{Data: make([]byte, 200), Writable: true}
	if err := VerifyInitPreconditions(small); !errors.Is(err, ErrAccountTooSmall) {
		t.Fatalf("expected ErrAccountTooSmall, got %v", err)
	}

	live := &Account{Data: make([]byte, CtxSize), Writable: true}
	WriteHeader(live.Data, testMagicMacro, 0, authority)
	if err := VerifyInitPreconditions(live); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestInitPreconditionsRejectAnyLiveTag(t *testing.T) {
	// A context already owned by one family must not be claimable by another;
	// any non-zero protocol tag blocks initialization.
	authority := solana.NewWallet().PublicKey()
	for _, magic := range []uint64{testMagicPrivacy, testMagicVol, testMagicJpy, testMagicEvent, testMagicMacro, 0xDEADBEEF} {
		live := &Account{Data: make([]byte, CtxSize), Writable: true}
		WriteHeader(live.Data, magic, 0, authority)
		if err := VerifyInitPreconditions(live); !errors.Is(err, ErrAlreadyInitialized) {
			t.Fatalf("tag %#x: expected ErrAlreadyInitialized, got %v", magic, err)
		}
	}
}

func TestComputeExecPrice(t *testing.T) {
	cases := []struct {
		price  uint64
		spread uint64
		want   uint64
	}{
		{100_000_000, 50, 100_500_000},
		{100_000_000, 0, 100_000_000}, // zero spread is the identity transform
		{4_500_000_000, 95, 4_542_750_000},
		{70_000_000_000, 25, 70_175_000_000},
	}
	for _, tc := range cases {
		got, err := ComputeExecPrice(tc.price, tc.spread)
		if err != nil {
			t.Fatalf("price=%d spread=%d: %v", tc.price, tc.spread, err)
		}
		if got != tc.want {
			t.Fatalf("price=%d spread=%d: got %d want %d", tc.price, tc.spread, got, tc.want)
		}
	}
}

func TestComputeExecPriceOverflow(t *testing.T) {
	if _, err := ComputeExecPrice(^uint64(0), 10_000); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow error, got %v", err)
	}
	// Max price with zero spread still fits.
	got, err := ComputeExecPrice(^uint64(0), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ^uint64(0) {
		t.Fatalf("identity at max price broken: %d", got)
	}
}

func TestWriteExecPriceOverwrite(t *testing.T) {
	data := make([]byte, CtxSize)
	WriteHeader(data, testMagicPrivacy, 0, solana.NewWallet().PublicKey())

	WriteExecPrice(data, 100_000_000)
	if ReadExecPrice(data) != 100_000_000 {
		t.Fatalf("first write lost")
	}
	WriteExecPrice(data, 200_000_000)
	if ReadExecPrice(data) != 200_000_000 {
		t.Fatalf("overwrite lost")
	}
	// The header past the return slot must be untouched.
	if !VerifyMagic(data, testMagicPrivacy) {
		t.Fatalf("magic corrupted by price write")
	}
}

func TestAddSat64(t *testing.T) {
	if got := AddSat64(3, 4); got != 7 {
		t.Fatalf("plain add broken: %d", got)
	}
	if got := AddSat64(^uint64(0), 1); got != ^uint64(0) {
		t.Fatalf("expected saturation at max, got %d", got)
	}
	if got := AddSat64(^uint64(0)-10, 200); got != ^uint64(0) {
		t.Fatalf("expected saturation on partial overflow, got %d", got)
	}
}

func TestU128AddSat(t *testing.T) {
	v := U128{}
	v = v.AddSat(^uint64(0))
	v = v.AddSat(1)
	if v.Hi != 1 || v.Lo != 0 {
		t.Fatalf("carry not propagated: %+v", v)
	}

	top := U128{Lo: ^uint64(0), Hi: ^uint64(0)}
	if got := top.AddSat(5); got != top {
		t.Fatalf("expected saturation at max, got %+v", got)
	}
}

func TestU128Roundtrip(t *testing.T) {
	data := make([]byte, 32)
	want := U128{Lo: 0x1122334455667788, Hi: 0x99AABBCCDDEEFF00}
	PutU128(data, 8, want)
	if got := GetU128(data, 8); got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}
