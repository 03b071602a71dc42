package jpymatcher

import (
	"bytes"
	"errors"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"percolator-go/internal/matcherctx"
)

type fixture struct {
	prog     *Program
	auth     *matcherctx.Account
	ctxAcc   *matcherctx.Account
	registry solana.PublicKey
}

func newFixture(t *testing.T, init InitParams) *fixture {
	t.Helper()
	f := &fixture{
		prog:     New(zerolog.Nop()),
		auth:     &matcherctx.Account{Key: solana.NewWallet().PublicKey(), Signer: true},
		ctxAcc:   &matcherctx.Account{Key: solana.NewWallet().PublicKey(), Writable: true, Data: make([]byte, matcherctx.CtxSize)},
		registry: solana.NewWallet().PublicKey(),
	}
	init.KycRegistry = f.registry
	ins, err := init.Instruction()
	if err != nil {
		t.Fatalf("encode init: %v", err)
	}
	if err := f.prog.Process([]*matcherctx.Account{f.auth, f.ctxAcc}, ins, matcherctx.Clock{}); err != nil {
		t.Fatalf("init: %v", err)
	}
	return f
}

func (f *fixture) setPrice(t *testing.T, price uint64) {
	t.Helper()
	err := f.prog.Process([]*matcherctx.Account{f.auth, f.ctxAcc}, OracleUpdateInstruction(price), matcherctx.Clock{})
	if err != nil {
		t.Fatalf("oracle update: %v", err)
	}
}

func (f *fixture) identity(rec IdentityRecord) *matcherctx.Account {
	if rec.Registry.IsZero() {
		rec.Registry = f.registry
	}
	return &matcherctx.Account{Key: solana.NewWallet().PublicKey(), Data: EncodeIdentityRecord(rec)}
}

func (f *fixture) match(identity, provider *matcherctx.Account, sizeE6 uint64, clock matcherctx.Clock) error {
	accounts := []*matcherctx.Account{f.auth, f.ctxAcc, identity, provider}
	return f.prog.Process(accounts, MatchInstruction(sizeE6), clock)
}

func defaultInit() InitParams {
	return InitParams{
		MinKycTier:     TierStandard,
		BaseSpreadBps:  20,
		KycDiscountBps: 5,
		MaxSpreadBps:   200,
	}
}

func TestInitRejectsInvertedSpreads(t *testing.T) {
	prog := New(zerolog.Nop())
	auth := &matcherctx.Account{Key: solana.NewWallet().PublicKey(), Signer: true}
	ctxAcc := &matcherctx.Account{Key: solana.NewWallet().PublicKey(), Writable: true, Data: make([]byte, matcherctx.CtxSize)}
	ins, err := InitParams{BaseSpreadBps: 100, MaxSpreadBps: 50}.Instruction()
	if err != nil {
		t.Fatalf("encode init: %v", err)
	}
	err = prog.Process([]*matcherctx.Account{auth, ctxAcc}, ins, matcherctx.Clock{})
	if !errors.Is(err, ErrInvalidSpreadConfig) {
		t.Fatalf("expected ErrInvalidSpreadConfig, got %v", err)
	}
	if matcherctx.ReadMagic(ctxAcc.Data) != 0 {
		t.Fatalf("rejected init wrote the header")
	}
}

func TestTierDiscountPricing(t *testing.T) {
	cases := []struct {
		tier KycTier
		want uint64
	}{
		{TierBasic, 0}, // below minimum, rejected
		{TierStandard, 5_010_000},      // full spread 20
		{TierEnhanced, 5_010_000},      // full spread 20
		{TierInstitutional, 5_007_500}, // discounted to 15
	}
	for _, tc := range cases {
		f := newFixture(t, defaultInit())
		f.setPrice(t, 5_000_000)
		id := f.identity(IdentityRecord{Tier: tc.tier})
		err := f.match(id, nil, 1_000, matcherctx.Clock{Unix: 1000})
		if tc.want == 0 {
			if !errors.Is(err, ErrInsufficientKycTier) {
				t.Fatalf("tier %s: expected ErrInsufficientKycTier, got %v", tc.tier, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("tier %s: %v", tc.tier, err)
		}
		if got := matcherctx.ReadExecPrice(f.ctxAcc.Data); got != tc.want {
			t.Fatalf("tier %s: exec price %d, want %d", tc.tier, got, tc.want)
		}
	}
}

func TestDiscountNeverUnderflows(t *testing.T) {
	f := newFixture(t, InitParams{BaseSpreadBps: 3, KycDiscountBps: 10, MaxSpreadBps: 200})
	f.setPrice(t, 5_000_000)
	id := f.identity(IdentityRecord{Tier: TierInstitutional})
	if err := f.match(id, nil, 1, matcherctx.Clock{Unix: 1000}); err != nil {
		t.Fatalf("match: %v", err)
	}
	// Discount larger than base saturates at zero spread.
	if got := matcherctx.ReadExecPrice(f.ctxAcc.Data); got != 5_000_000 {
		t.Fatalf("exec price %d, want mark unchanged", got)
	}
}

func TestExpiredIdentityRejected(t *testing.T) {
	f := newFixture(t, defaultInit())
	f.setPrice(t, 5_000_000)
	id := f.identity(IdentityRecord{Tier: TierEnhanced, Expiry: 500})

	before := append([]byte(nil), f.ctxAcc.Data...)
	err := f.match(id, nil, 1, matcherctx.Clock{Unix: 501})
	if !errors.Is(err, ErrIdentityExpired) {
		t.Fatalf("expected ErrIdentityExpired, got %v", err)
	}
	if !bytes.Equal(before, f.ctxAcc.Data) {
		t.Fatalf("rejected match mutated the context")
	}

	// Expiry of zero means never expires; exact expiry second still valid.
	if err := f.match(f.identity(IdentityRecord{Tier: TierEnhanced}), nil, 1, matcherctx.Clock{Unix: 1 << 40}); err != nil {
		t.Fatalf("zero expiry rejected: %v", err)
	}
	if err := f.match(id, nil, 1, matcherctx.Clock{Unix: 500}); err != nil {
		t.Fatalf("match at exact expiry failed: %v", err)
	}
}

func TestBlockedJurisdiction(t *testing.T) {
	init := defaultInit()
	init.BlockedJurisdictions = 1<<3 | 1<<5
	f := newFixture(t, init)
	f.setPrice(t, 5_000_000)

	for _, code := range []uint8{3, 5} {
		id := f.identity(IdentityRecord{Tier: TierEnhanced, Jurisdiction: code})
		if err := f.match(id, nil, 1, matcherctx.Clock{Unix: 1000}); !errors.Is(err, ErrJurisdictionBlocked) {
			t.Fatalf("code %d: expected ErrJurisdictionBlocked, got %v", code, err)
		}
	}
	id := f.identity(IdentityRecord{Tier: TierEnhanced, Jurisdiction: 4})
	if err := f.match(id, nil, 1, matcherctx.Clock{Unix: 1000}); err != nil {
		t.Fatalf("unblocked code rejected: %v", err)
	}
}

func TestSameJurisdictionEnforcement(t *testing.T) {
	init := defaultInit()
	init.RequireSameJurisdiction = true
	f := newFixture(t, init)
	f.setPrice(t, 5_000_000)

	cp := f.identity(IdentityRecord{Tier: TierEnhanced, Jurisdiction: 2})
	lp := f.identity(IdentityRecord{Tier: TierEnhanced, Jurisdiction: 6})
	if err := f.match(cp, lp, 1, matcherctx.Clock{Unix: 1000}); !errors.Is(err, ErrJurisdictionMismatch) {
		t.Fatalf("expected ErrJurisdictionMismatch, got %v", err)
	}

	sameLp := f.identity(IdentityRecord{Tier: TierEnhanced, Jurisdiction: 2})
	if err := f.match(cp, sameLp, 1, matcherctx.Clock{Unix: 1000}); err != nil {
		t.Fatalf("same jurisdiction rejected: %v", err)
	}
	// Without a provider record the check cannot apply.
	if err := f.match(cp, nil, 1, matcherctx.Clock{Unix: 1000}); err != nil {
		t.Fatalf("missing provider record rejected: %v", err)
	}
}

func TestDailyCapAccumulationAndReset(t *testing.T) {
	init := defaultInit()
	init.DailyCap = 1_000
	f := newFixture(t, init)
	f.setPrice(t, 5_000_000)
	id := f.identity(IdentityRecord{Tier: TierEnhanced})

	if err := f.match(id, nil, 600, matcherctx.Clock{Unix: 1_000}); err != nil {
		t.Fatalf("first trade: %v", err)
	}
	if err := f.match(id, nil, 400, matcherctx.Clock{Unix: 2_000}); err != nil {
		t.Fatalf("second trade at cap: %v", err)
	}
	err := f.match(id, nil, 1, matcherctx.Clock{Unix: 3_000})
	if !errors.Is(err, ErrDailyCapExceeded) {
		t.Fatalf("expected ErrDailyCapExceeded, got %v", err)
	}
	if got := matcherctx.GetU64(f.ctxAcc.Data, dayVolumeOffset); got != 1_000 {
		t.Fatalf("rejected trade advanced day volume: %d", got)
	}

	// Exactly one window later is still the same day; one second past rolls it.
	lastReset := matcherctx.GetI64(f.ctxAcc.Data, dayResetOffset)
	err = f.match(id, nil, 1, matcherctx.Clock{Unix: lastReset + secondsPerDay})
	if !errors.Is(err, ErrDailyCapExceeded) {
		t.Fatalf("cap reset early: %v", err)
	}
	rollover := lastReset + secondsPerDay + 1
	if err := f.match(id, nil, 700, matcherctx.Clock{Unix: rollover}); err != nil {
		t.Fatalf("trade after rollover: %v", err)
	}
	if got := matcherctx.GetU64(f.ctxAcc.Data, dayVolumeOffset); got != 700 {
		t.Fatalf("day volume after rollover %d, want 700", got)
	}
	if got := matcherctx.GetI64(f.ctxAcc.Data, dayResetOffset); got != rollover {
		t.Fatalf("reset timestamp %d, want %d", got, rollover)
	}
}

func TestZeroCapIsUnlimited(t *testing.T) {
	f := newFixture(t, defaultInit())
	f.setPrice(t, 5_000_000)
	id := f.identity(IdentityRecord{Tier: TierEnhanced})
	if err := f.match(id, nil, 1<<40, matcherctx.Clock{Unix: 1000}); err != nil {
		t.Fatalf("uncapped trade rejected: %v", err)
	}
}

func TestKycBypassWhenNoMinimum(t *testing.T) {
	f := newFixture(t, InitParams{BaseSpreadBps: 20, MaxSpreadBps: 200})
	f.setPrice(t, 5_000_000)
	if err := f.match(nil, nil, 1, matcherctx.Clock{Unix: 1000}); err != nil {
		t.Fatalf("match without identity record: %v", err)
	}
	if got := matcherctx.ReadExecPrice(f.ctxAcc.Data); got != 5_010_000 {
		t.Fatalf("exec price %d, want 5010000", got)
	}
}

func TestMissingRecordWithMinimumRejected(t *testing.T) {
	f := newFixture(t, defaultInit())
	f.setPrice(t, 5_000_000)
	if err := f.match(nil, nil, 1, matcherctx.Clock{Unix: 1000}); !errors.Is(err, ErrInsufficientKycTier) {
		t.Fatalf("expected ErrInsufficientKycTier, got %v", err)
	}
}

func TestForeignRegistryRecordRejected(t *testing.T) {
	f := newFixture(t, defaultInit())
	f.setPrice(t, 5_000_000)
	foreign := f.identity(IdentityRecord{Registry: solana.NewWallet().PublicKey(), Tier: TierInstitutional})
	if err := f.match(foreign, nil, 1, matcherctx.Clock{Unix: 1000}); !errors.Is(err, ErrIdentityRegistryMismatch) {
		t.Fatalf("expected ErrIdentityRegistryMismatch, got %v", err)
	}
}

func TestOracleUpdateGuards(t *testing.T) {
	f := newFixture(t, defaultInit())

	id := f.identity(IdentityRecord{Tier: TierEnhanced})
	if err := f.match(id, nil, 1, matcherctx.Clock{Unix: 1000}); !errors.Is(err, ErrPriceNotSynced) {
		t.Fatalf("expected ErrPriceNotSynced, got %v", err)
	}

	err := f.prog.Process([]*matcherctx.Account{f.auth, f.ctxAcc}, OracleUpdateInstruction(0), matcherctx.Clock{})
	if !errors.Is(err, ErrZeroPrice) {
		t.Fatalf("expected ErrZeroPrice, got %v", err)
	}

	unsigned := &matcherctx.Account{Key: f.auth.Key}
	err = f.prog.Process([]*matcherctx.Account{unsigned, f.ctxAcc}, OracleUpdateInstruction(1), matcherctx.Clock{})
	if !errors.Is(err, matcherctx.ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

func TestIdentityRecordRoundTrip(t *testing.T) {
	want := IdentityRecord{
		Registry:     solana.NewWallet().PublicKey(),
		Tier:         TierEnhanced,
		Expiry:       1_900_000_000,
		Jurisdiction: 6,
	}
	got, err := ParseIdentityRecord(EncodeIdentityRecord(want))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != want {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", got, want)
	}

	if _, err := ParseIdentityRecord(make([]byte, recordSize-1)); !errors.Is(err, ErrIdentityRecordTooSmall) {
		t.Fatalf("expected ErrIdentityRecordTooSmall, got %v", err)
	}
}
