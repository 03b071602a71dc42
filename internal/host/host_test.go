package host

import (
	"errors"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"percolator-go/internal/matcherctx"
	"percolator-go/internal/volmatcher"
)

func fixedClock(slot uint64) ClockSource {
	return func() matcherctx.Clock { return matcherctx.Clock{Slot: slot} }
}

func TestInvokeRoutesToRegisteredProgram(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(), fixedClock(5))
	id := solana.NewWallet().PublicKey()
	if err := reg.Register(id, "vol", volmatcher.New(zerolog.Nop())); err != nil {
		t.Fatalf("register: %v", err)
	}

	auth := &matcherctx.Account{Key: solana.NewWallet().PublicKey(), Signer: true}
	ctxAcc := &matcherctx.Account{Key: solana.NewWallet().PublicKey(), Writable: true, Data: make([]byte, matcherctx.CtxSize)}
	ins, err := volmatcher.InitParams{BaseSpreadBps: 10, MaxSpreadBps: 100}.Instruction()
	if err != nil {
		t.Fatalf("encode init: %v", err)
	}
	if err := reg.Invoke(id, []*matcherctx.Account{auth, ctxAcc}, ins); err != nil {
		t.Fatalf("invoke init: %v", err)
	}
	if matcherctx.ReadMagic(ctxAcc.Data) != volmatcher.Magic {
		t.Fatalf("init did not reach the vol matcher")
	}
}

func TestInvokeUnknownProgram(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(), fixedClock(1))
	err := reg.Invoke(solana.NewWallet().PublicKey(), nil, []byte{matcherctx.TagMatch})
	if !errors.Is(err, ErrUnknownProgram) {
		t.Fatalf("expected ErrUnknownProgram, got %v", err)
	}
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(), fixedClock(1))
	id := solana.NewWallet().PublicKey()
	prog := volmatcher.New(zerolog.Nop())
	if err := reg.Register(id, "vol", prog); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(id, "vol2", prog); !errors.Is(err, ErrDuplicateProgram) {
		t.Fatalf("expected ErrDuplicateProgram, got %v", err)
	}
}

func TestInvokeSurfacesProgramErrors(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(), fixedClock(1))
	id := solana.NewWallet().PublicKey()
	if err := reg.Register(id, "vol", volmatcher.New(zerolog.Nop())); err != nil {
		t.Fatalf("register: %v", err)
	}

	auth := &matcherctx.Account{Key: solana.NewWallet().PublicKey(), Signer: true}
	ctxAcc := &matcherctx.Account{Key: solana.NewWallet().PublicKey(), Writable: true, Data: make([]byte, matcherctx.CtxSize)}
	err := reg.Invoke(id, []*matcherctx.Account{auth, ctxAcc}, []byte{matcherctx.TagMatch})
	if !errors.Is(err, matcherctx.ErrUninitialized) {
		t.Fatalf("expected ErrUninitialized, got %v", err)
	}
}
