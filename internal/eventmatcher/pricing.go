package eventmatcher

import (
	"fmt"

	"github.com/rs/zerolog"

	"percolator-go/internal/matcherctx"
)

// Program is the event matcher dispatcher.
type Program struct {
	log zerolog.Logger
}

// New constructs the program with a component-scoped logger.
func New(log zerolog.Logger) *Program {
	return &Program{log: log.With().Str("matcher", "event").Logger()}
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
		return p.init(accounts, data[1:], clock)
	case matcherctx.TagSync:
		return p.sync(accounts, data[1:], clock)
	case matcherctx.TagResolve:
		return p.resolve(accounts, data[1:], clock)
	default:
		return fmt.Errorf("%w: unknown tag %#02x", matcherctx.ErrInvalidInstruction, data[0])
	}
}

// init writes the shared header plus event configuration and seeds the
// probability signal.
// Accounts: [0] authorization key, [1] context (writable, 320 bytes).
func (p *Program) init(accounts []*matcherctx.Account, payload []byte, clock matcherctx.Clock) error {
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
	if params.InitialProbE6 > ProbScale {
		return ErrInvalidProbability
	}
	if params.BaseSpreadBps > params.MaxSpreadBps {
		return fmt.Errorf("%w: base %d > max %d", ErrInvalidSpreadConfig, params.BaseSpreadBps, params.MaxSpreadBps)
	}

	data := ctxAcc.Data
	matcherctx.WriteHeader(data, Magic, params.Mode, auth.Key)

	matcherctx.PutU32(data, baseSpreadOffset, params.BaseSpreadBps)
	matcherctx.PutU32(data, edgeSpreadOffset, params.EdgeSpreadBps)
	matcherctx.PutU32(data, maxSpreadOffset, params.MaxSpreadBps)
	matcherctx.PutU32(data, impactKOffset, params.ImpactKBps)

	matcherctx.PutU64(data, probabilityOffset, params.InitialProbE6)
	matcherctx.PutU64(data, probMarkOffset, params.InitialProbE6)
	matcherctx.PutU64(data, lastUpdateSlotOffset, clock.Slot)
	matcherctx.PutI64(data, resolutionTsOffset, 0)
	data[isResolvedOffset] = 0
	data[outcomeOffset] = 0
	matcherctx.Zero(data, outcomeOffset+1, signalSeverityOffset)
	matcherctx.PutU64(data, signalSeverityOffset, 0)
	matcherctx.PutU64(data, signalAdjSpreadOffset, 0)

	matcherctx.PutU128(data, liquidityOffset, params.LiquidityE6)
	matcherctx.PutU128(data, maxFillOffset, params.MaxFill)
	copy(data[oracleOffset:oracleOffset+32], params.Oracle[:])
	matcherctx.Zero(data, reservedOffset, matcherctx.CtxSize)

	p.log.Info().
		Str("authority", auth.Key.String()).
		Uint64("initial_prob", params.InitialProbE6).
		Uint32("base_spread", params.BaseSpreadBps).
		Uint32("edge_spread", params.EdgeSpreadBps).
		Uint32("max_spread", params.MaxSpreadBps).
		Msg("init")
	return nil
}

// match computes the edge-adjusted execution price. Resolved markets reject
// before any signal check so the terminal zero probability is not mistaken
// for an unsynced one.
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
	if data[isResolvedOffset] != 0 {
		return ErrMarketResolved
	}

	prob := matcherctx.GetU64(data, probabilityOffset)
	if prob == 0 {
		return ErrProbabilityNotSet
	}
	lastUpdate := matcherctx.GetU64(data, lastUpdateSlotOffset)
	if clock.Slot-min(clock.Slot, lastUpdate) > maxStalenessSlots {
		return fmt.Errorf("%w: last update slot %d, current %d", ErrOracleStale, lastUpdate, clock.Slot)
	}

	baseSpread := uint64(matcherctx.GetU32(data, baseSpreadOffset))
	edgeSpread := uint64(matcherctx.GetU32(data, edgeSpreadOffset))
	maxSpread := uint64(matcherctx.GetU32(data, maxSpreadOffset))
	signalAdj := matcherctx.GetU64(data, signalAdjSpreadOffset)

	// The adjustment comes from a sync payload, so the sum must saturate
	// rather than wrap below the base spread.
	factor := EdgeFactor(prob)
	adjustedEdge := edgeSpread * factor / ProbScale
	totalSpread := min(matcherctx.AddSat64(matcherctx.AddSat64(baseSpread, adjustedEdge), signalAdj), maxSpread)

	execPrice, err := matcherctx.ComputeExecPrice(prob, totalSpread)
	if err != nil {
		return err
	}
	matcherctx.WriteExecPrice(data, execPrice)

	p.log.Debug().
		Uint64("price", execPrice).
		Uint64("spread", totalSpread).
		Uint64("prob", prob).
		Uint64("edge_factor", factor).
		Msg("match")
	return nil
}

// sync refreshes the cached probability. Resolved markets never accept new
// signal values.
// Accounts: [0] context (writable), [1] event oracle (must match stored ref).
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
	if ctxAcc.Data[isResolvedOffset] != 0 {
		return ErrMarketResolved
	}

	params, err := decodeSyncParams(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", matcherctx.ErrInvalidInstruction, err)
	}
	if params.ProbE6 > ProbScale {
		return ErrInvalidProbability
	}
	if params.SignalSeverity > SignalCritical {
		return ErrInvalidSignalSeverity
	}

	data := ctxAcc.Data
	matcherctx.PutU64(data, probabilityOffset, params.ProbE6)
	matcherctx.PutU64(data, probMarkOffset, params.ProbE6)
	matcherctx.PutU64(data, lastUpdateSlotOffset, clock.Slot)
	matcherctx.PutU64(data, signalSeverityOffset, params.SignalSeverity)
	matcherctx.PutU64(data, signalAdjSpreadOffset, params.SignalAdjSpread)

	p.log.Debug().Uint64("prob", params.ProbE6).Msg("probability sync")
	return nil
}

// resolve finalizes the market: the probability snaps to the boundary matching
// the outcome and the resolved flag locks the context permanently. Only the
// bound oracle may resolve, and it must sign.
// Accounts: [0] context (writable), [1] event oracle (signer).
func (p *Program) resolve(accounts []*matcherctx.Account, payload []byte, clock matcherctx.Clock) error {
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
	if ctxAcc.Data[isResolvedOffset] != 0 {
		return ErrMarketResolved
	}

	outcome := payload[0]
	if outcome > 1 {
		return ErrInvalidOutcome
	}

	data := ctxAcc.Data
	terminal := uint64(0)
	if outcome == 1 {
		terminal = ProbScale
	}
	matcherctx.PutU64(data, probabilityOffset, terminal)
	matcherctx.PutU64(data, probMarkOffset, terminal)
	matcherctx.PutI64(data, resolutionTsOffset, clock.Unix)
	data[isResolvedOffset] = 1
	data[outcomeOffset] = outcome

	p.log.Info().Uint8("outcome", outcome).Int64("resolved_at", clock.Unix).Msg("market resolved")
	return nil
}
