package privacymatcher

import (
	"fmt"

	"github.com/rs/zerolog"

	"percolator-go/internal/matcherctx"
)

// Program is the solver matcher dispatcher.
type Program struct {
	log zerolog.Logger
}

// New constructs the program with a component-scoped logger.
func New(log zerolog.Logger) *Program {
	return &Program{log: log.With().Str("matcher", "privacy").Logger()}
}

// Process dispatches on the leading instruction tag.
func (p *Program) Process(accounts []*matcherctx.Account, data []byte, clock matcherctx.Clock) error {
	if len(data) == 0 {
		return matcherctx.ErrInvalidInstruction
	}
	switch data[0] {
	case matcherctx.TagMatch:
		return p.match(accounts, data[1:])
	case matcherctx.TagInit:
		return p.init(accounts, data[1:])
	case matcherctx.TagSync:
		return p.priceUpdate(accounts, data[1:])
	default:
		return fmt.Errorf("%w: unknown tag %#02x", matcherctx.ErrInvalidInstruction, data[0])
	}
}

// init writes the shared header, binds the solver identity, and validates the
// spread configuration so a misconfigured context can never become usable.
// Accounts: [0] authorization key, [1] context (writable), [2] solver identity.
func (p *Program) init(accounts []*matcherctx.Account, payload []byte) error {
	if len(accounts) < 3 {
		return matcherctx.ErrNotEnoughAccounts
	}
	auth, ctxAcc, solver := accounts[0], accounts[1], accounts[2]

	if err := matcherctx.VerifyInitPreconditions(ctxAcc); err != nil {
		return err
	}
	params, err := decodeInitParams(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", matcherctx.ErrInvalidInstruction, err)
	}
	if params.BaseSpreadBps > params.MaxSpreadBps {
		return fmt.Errorf("%w: base %d > max %d", ErrInvalidSpreadConfig, params.BaseSpreadBps, params.MaxSpreadBps)
	}

	data := ctxAcc.Data
	matcherctx.WriteHeader(data, Magic, params.Mode, auth.Key)
	copy(data[solverOffset:solverOffset+32], solver.Key[:])
	matcherctx.PutU32(data, baseSpreadOffset, params.BaseSpreadBps)
	matcherctx.PutU32(data, maxSpreadOffset, params.MaxSpreadBps)
	matcherctx.PutU32(data, solverFeeOffset, params.SolverFeeBps)
	matcherctx.PutU64(data, oraclePriceOffset, 0)
	matcherctx.PutU64(data, lastExecPriceOffset, 0)
	matcherctx.PutU128(data, totalVolumeOffset, matcherctx.U128{})
	matcherctx.PutU64(data, totalOrdersOffset, 0)
	copy(data[solverEncKeyOffset:solverEncKeyOffset+32], params.SolverEncKey[:])
	matcherctx.Zero(data, reservedOffset, matcherctx.CtxSize)

	p.log.Info().
		Str("authority", auth.Key.String()).
		Str("solver", solver.Key.String()).
		Uint32("base_spread", params.BaseSpreadBps).
		Uint32("solver_fee", params.SolverFeeBps).
		Uint32("max_spread", params.MaxSpreadBps).
		Msg("init")
	return nil
}

// match prices at base spread plus the flat solver fee and records the fill
// in the lifetime counters.
// Accounts: [0] authorization key (signer), [1] context (writable).
func (p *Program) match(accounts []*matcherctx.Account, payload []byte) error {
	if len(accounts) < 2 {
		return matcherctx.ErrNotEnoughAccounts
	}
	auth, ctxAcc := accounts[0], accounts[1]

	if err := matcherctx.VerifyAuthority(auth, ctxAcc, Magic); err != nil {
		return err
	}
	if len(payload) < 8 {
		return matcherctx.ErrInvalidInstruction
	}
	sizeE6 := matcherctx.GetU64(payload, 0)

	data := ctxAcc.Data
	mark := matcherctx.GetU64(data, oraclePriceOffset)
	if mark == 0 {
		return ErrPriceNotSynced
	}

	baseSpread := uint64(matcherctx.GetU32(data, baseSpreadOffset))
	solverFee := uint64(matcherctx.GetU32(data, solverFeeOffset))
	maxSpread := uint64(matcherctx.GetU32(data, maxSpreadOffset))
	totalSpread := min(baseSpread+solverFee, maxSpread)

	execPrice, err := matcherctx.ComputeExecPrice(mark, totalSpread)
	if err != nil {
		return err
	}

	matcherctx.WriteExecPrice(data, execPrice)
	matcherctx.PutU64(data, lastExecPriceOffset, execPrice)
	matcherctx.PutU64(data, totalOrdersOffset, matcherctx.GetU64(data, totalOrdersOffset)+1)
	volume := matcherctx.GetU128(data, totalVolumeOffset)
	matcherctx.PutU128(data, totalVolumeOffset, volume.AddSat(sizeE6))

	p.log.Debug().
		Uint64("price", execPrice).
		Uint64("spread", totalSpread).
		Uint64("size", sizeE6).
		Msg("match")
	return nil
}

// priceUpdate lets the bound solver, and nobody else, push a fresh mark.
// Zero is rejected so the unsynced sentinel cannot be written deliberately.
// Accounts: [0] solver (signer), [1] context (writable).
func (p *Program) priceUpdate(accounts []*matcherctx.Account, payload []byte) error {
	if len(accounts) < 2 {
		return matcherctx.ErrNotEnoughAccounts
	}
	solver, ctxAcc := accounts[0], accounts[1]

	if !solver.Signer {
		return matcherctx.ErrMissingSignature
	}
	if !ctxAcc.Writable {
		return matcherctx.ErrNotWritable
	}
	if !matcherctx.VerifyMagic(ctxAcc.Data, Magic) {
		return matcherctx.ErrUninitialized
	}
	if !solver.Key.Equals(readSolver(ctxAcc.Data)) {
		return ErrSolverMismatch
	}
	if len(payload) < 8 {
		return matcherctx.ErrInvalidInstruction
	}
	price := matcherctx.GetU64(payload, 0)
	if price == 0 {
		return ErrZeroPrice
	}

	matcherctx.PutU64(ctxAcc.Data, oraclePriceOffset, price)
	p.log.Debug().Uint64("price", price).Msg("solver price update")
	return nil
}
