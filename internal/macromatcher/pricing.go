package macromatcher

import (
	"fmt"

	"github.com/rs/zerolog"

	"percolator-go/internal/matcherctx"
)

// Program is the macro matcher dispatcher.
type Program struct {
	log zerolog.Logger
}

// New constructs the program with a component-scoped logger.
func New(log zerolog.Logger) *Program {
	return &Program{log: log.With().Str("matcher", "macro").Logger()}
}

// Process dispatches on the leading instruction tag.
func (p *Program) Process(accounts []*matcherctx.Account, data []byte, clock matcherctx.Clock) error {
	if len(data) == 0 {
		return matcherctx.ErrInvalidInstruction
	}
	switch data[0] {
	case matcherctx.TagMatch:
		return p.match(accounts, clock)
	case matcherctx.TagInit:
		return p.init(accounts, data[1:])
	case matcherctx.TagSync:
		return p.sync(accounts, data[1:], clock)
	case matcherctx.TagResolve:
		return p.regimeUpdate(accounts, data[1:])
	default:
		return fmt.Errorf("%w: unknown tag %#02x", matcherctx.ErrInvalidInstruction, data[0])
	}
}

// init writes the shared header plus macro configuration.
// Accounts: [0] authorization key, [1] context (writable, 320 bytes).
func (p *Program) init(accounts []*matcherctx.Account, payload []byte) error {
	if len(accounts) < 2 {
		return matcherctx.ErrNotEnoughAccounts
	}
	auth, ctxAcc := accounts[0], accounts[1]

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

	matcherctx.PutU32(data, baseSpreadOffset, params.BaseSpreadBps)
	matcherctx.PutU32(data, regimeSpreadOffset, params.RegimeSpreadBps)
	matcherctx.PutU32(data, maxSpreadOffset, params.MaxSpreadBps)
	matcherctx.PutU32(data, impactKOffset, params.ImpactKBps)

	matcherctx.PutU64(data, currentIndexOffset, 0)
	matcherctx.PutU64(data, componentsPackedOffset, 0)
	matcherctx.PutU64(data, lastUpdateSlotOffset, 0)
	data[regimeOffset] = byte(RegimeStagnation)
	matcherctx.Zero(data, regimeOffset+1, regimeOffset+8)
	matcherctx.PutU64(data, signalSeverityOffset, SignalNone)
	matcherctx.PutU64(data, signalAdjSpreadOffset, 0)

	matcherctx.PutU128(data, liquidityOffset, params.LiquidityE6)
	matcherctx.PutU128(data, maxFillOffset, params.MaxFill)
	copy(data[oracleOffset:oracleOffset+32], params.Oracle[:])

	matcherctx.PutU128(data, totalVolumeOffset, matcherctx.U128{})
	matcherctx.PutU64(data, totalTradesOffset, 0)
	matcherctx.Zero(data, reservedOffset, matcherctx.CtxSize)

	p.log.Info().
		Str("authority", auth.Key.String()).
		Uint8("mode", params.Mode).
		Uint32("base_spread", params.BaseSpreadBps).
		Uint32("regime_spread", params.RegimeSpreadBps).
		Uint32("max_spread", params.MaxSpreadBps).
		Msg("init")
	return nil
}

// match computes the regime-adjusted execution price and bumps the lifetime
// trade counter on success.
// Accounts: [0] authorization key (signer), [1] context (writable).
func (p *Program) match(accounts []*matcherctx.Account, clock matcherctx.Clock) error {
	if len(accounts) < 2 {
		return matcherctx.ErrNotEnoughAccounts
	}
	auth, ctxAcc := accounts[0], accounts[1]

	if err := matcherctx.VerifyAuthority(auth, ctxAcc, Magic); err != nil {
		return err
	}

	data := ctxAcc.Data
	baseSpread := uint64(matcherctx.GetU32(data, baseSpreadOffset))
	regimeSpread := uint64(matcherctx.GetU32(data, regimeSpreadOffset))
	maxSpread := uint64(matcherctx.GetU32(data, maxSpreadOffset))
	mark := matcherctx.GetU64(data, currentIndexOffset)
	regime := RegimeFromByte(data[regimeOffset])
	signalAdj := matcherctx.GetU64(data, signalAdjSpreadOffset)

	if mark == 0 {
		return ErrIndexNotSynced
	}
	lastUpdate := matcherctx.GetU64(data, lastUpdateSlotOffset)
	if clock.Slot-min(clock.Slot, lastUpdate) > maxStalenessSlots {
		return fmt.Errorf("%w: last update slot %d, current %d", ErrOracleStale, lastUpdate, clock.Slot)
	}

	// The adjustment comes from a sync payload, so the sum must saturate
	// rather than wrap below the base spread.
	adjustedRegime := regimeSpread * regime.SpreadMultiplier() / 100
	totalSpread := min(matcherctx.AddSat64(matcherctx.AddSat64(baseSpread, adjustedRegime), signalAdj), maxSpread)

	execPrice, err := matcherctx.ComputeExecPrice(mark, totalSpread)
	if err != nil {
		return err
	}

	matcherctx.WriteExecPrice(data, execPrice)
	matcherctx.PutU64(data, totalTradesOffset, matcherctx.GetU64(data, totalTradesOffset)+1)

	p.log.Debug().
		Uint64("price", execPrice).
		Uint64("spread", totalSpread).
		Str("regime", regime.String()).
		Uint64("mark", mark).
		Msg("match")
	return nil
}

// sync refreshes the cached index and anomaly signal pair.
// Accounts: [0] context (writable), [1] macro oracle (must match stored ref).
func (p *Program) sync(accounts []*matcherctx.Account, payload []byte, clock matcherctx.Clock) error {
	if len(accounts) < 2 {
		return matcherctx.ErrNotEnoughAccounts
	}
	ctxAcc, oracle := accounts[0], accounts[1]

	if !ctxAcc.Writable {
		return matcherctx.ErrNotWritable
	}
	if !matcherctx.VerifyMagic(ctxAcc.Data, Magic) {
		return matcherctx.ErrUninitialized
	}
	if !oracle.Key.Equals(readOracle(ctxAcc.Data)) {
		return ErrOracleMismatch
	}

	params, err := decodeSyncParams(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", matcherctx.ErrInvalidInstruction, err)
	}
	if params.SignalSeverity > SignalCritical {
		return ErrInvalidSignalSeverity
	}

	data := ctxAcc.Data
	oldIndex := matcherctx.GetU64(data, currentIndexOffset)
	matcherctx.PutU64(data, currentIndexOffset, params.IndexE6)
	matcherctx.PutU64(data, componentsPackedOffset, params.ComponentsPacked)
	matcherctx.PutU64(data, lastUpdateSlotOffset, clock.Slot)
	matcherctx.PutU64(data, signalSeverityOffset, params.SignalSeverity)
	matcherctx.PutU64(data, signalAdjSpreadOffset, params.SignalAdjSpread)

	p.log.Debug().
		Uint64("old_index", oldIndex).
		Uint64("new_index", params.IndexE6).
		Uint64("severity", params.SignalSeverity).
		Msg("index sync")
	return nil
}

// regimeUpdate switches the macro regime. Only the bound oracle may do this,
// and it must sign.
// Accounts: [0] context (writable), [1] macro oracle (signer).
func (p *Program) regimeUpdate(accounts []*matcherctx.Account, payload []byte) error {
	if len(accounts) < 2 {
		return matcherctx.ErrNotEnoughAccounts
	}
	if len(payload) < 1 {
		return matcherctx.ErrInvalidInstruction
	}
	ctxAcc, oracle := accounts[0], accounts[1]

	if !oracle.Signer {
		return matcherctx.ErrMissingSignature
	}
	if !ctxAcc.Writable {
		return matcherctx.ErrNotWritable
	}
	if !matcherctx.VerifyMagic(ctxAcc.Data, Magic) {
		return matcherctx.ErrUninitialized
	}
	if !oracle.Key.Equals(readOracle(ctxAcc.Data)) {
		return ErrOracleMismatch
	}

	newRegime := payload[0]
	if newRegime > byte(RegimeRecovery) {
		return ErrInvalidRegime
	}

	old := ctxAcc.Data[regimeOffset]
	ctxAcc.Data[regimeOffset] = newRegime

	p.log.Info().
		Str("old", RegimeFromByte(old).String()).
		Str("new", Regime(newRegime).String()).
		Msg("regime update")
	return nil
}
