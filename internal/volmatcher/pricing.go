package volmatcher

import (
	"fmt"

	"github.com/rs/zerolog"

	"percolator-go/internal/matcherctx"
)

// Program is the vol matcher dispatcher. One instance per process; all state
// lives in the context account it is handed.
type Program struct {
	log zerolog.Logger
}

// New constructs the program with a component-scoped logger.
func New(log zerolog.Logger) *Program {
	return &Program{log: log.With().Str("matcher", "vol").Logger()}
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
	default:
		return fmt.Errorf("%w: unknown tag %#02x", matcherctx.ErrInvalidInstruction, data[0])
	}
}

// init writes the shared header plus vol configuration.
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
	matcherctx.PutU32(data, vovSpreadOffset, params.VovSpreadBps)
	matcherctx.PutU32(data, maxSpreadOffset, params.MaxSpreadBps)
	matcherctx.PutU32(data, impactKOffset, params.ImpactKBps)

	// Signal state starts unsynced: mark price zero blocks matching until the
	// first oracle sync lands.
	matcherctx.PutU64(data, currentVolOffset, 0)
	matcherctx.PutU64(data, markPriceOffset, 0)
	matcherctx.PutU64(data, lastUpdateSlotOffset, 0)
	data[regimeOffset] = byte(RegimeNormal)
	matcherctx.Zero(data, regimeOffset+1, regimeOffset+8)
	matcherctx.PutU64(data, vol7dAvgOffset, 0)
	matcherctx.PutU64(data, vol30dAvgOffset, 0)

	matcherctx.PutU128(data, liquidityOffset, params.LiquidityE6)
	matcherctx.PutU128(data, maxFillOffset, params.MaxFill)
	copy(data[varianceTrackerOffset:varianceTrackerOffset+32], params.VarianceTracker[:])
	copy(data[volIndexOffset:volIndexOffset+32], params.VolIndex[:])
	matcherctx.Zero(data, reservedOffset, matcherctx.CtxSize)

	p.log.Info().
		Str("authority", auth.Key.String()).
		Uint8("mode", params.Mode).
		Uint32("base_spread", params.BaseSpreadBps).
		Uint32("vov_spread", params.VovSpreadBps).
		Uint32("max_spread", params.MaxSpreadBps).
		Msg("init")
	return nil
}

// match computes the vol-adjusted execution price.
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
	vovSpread := uint64(matcherctx.GetU32(data, vovSpreadOffset))
	maxSpread := uint64(matcherctx.GetU32(data, maxSpreadOffset))
	mark := matcherctx.GetU64(data, markPriceOffset)
	regime := RegimeFromByte(data[regimeOffset])

	if mark == 0 {
		return ErrOracleNotSynced
	}
	lastUpdate := matcherctx.GetU64(data, lastUpdateSlotOffset)
	if clock.Slot-min(clock.Slot, lastUpdate) > maxStalenessSlots {
		return fmt.Errorf("%w: last update slot %d, current %d", ErrOracleStale, lastUpdate, clock.Slot)
	}

	adjustedVov := vovSpread * regime.SpreadMultiplier() / 100
	totalSpread := min(baseSpread+adjustedVov, maxSpread)

	execPrice, err := matcherctx.ComputeExecPrice(mark, totalSpread)
	if err != nil {
		return err
	}
	matcherctx.WriteExecPrice(data, execPrice)

	p.log.Debug().
		Uint64("price", execPrice).
		Uint64("spread", totalSpread).
		Str("regime", regime.String()).
		Uint64("mark", mark).
		Msg("match")
	return nil
}

// sync refreshes the cached signal from the updater. The two oracle account
// references supplied must match the ones bound at init.
// Accounts: [0] context (writable), [1] variance tracker, [2] vol index.
func (p *Program) sync(accounts []*matcherctx.Account, payload []byte, clock matcherctx.Clock) error {
	if len(accounts) < 3 {
		return matcherctx.ErrNotEnoughAccounts
	}
	ctxAcc, tracker, index := accounts[0], accounts[1], accounts[2]

	if !ctxAcc.Writable {
		return matcherctx.ErrNotWritable
	}
	if !matcherctx.VerifyMagic(ctxAcc.Data, Magic) {
		return matcherctx.ErrUninitialized
	}
	if !tracker.Key.Equals(readVarianceTracker(ctxAcc.Data)) {
		return fmt.Errorf("%w: variance tracker", ErrOracleAccountMismatch)
	}
	if !index.Key.Equals(readVolIndex(ctxAcc.Data)) {
		return fmt.Errorf("%w: vol index", ErrOracleAccountMismatch)
	}

	params, err := decodeSyncParams(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", matcherctx.ErrInvalidInstruction, err)
	}
	if params.Regime > byte(RegimeExtreme) {
		return ErrInvalidRegime
	}

	data := ctxAcc.Data
	oldVol := matcherctx.GetU64(data, currentVolOffset)
	matcherctx.PutU64(data, currentVolOffset, params.CurrentVolBps)
	matcherctx.PutU64(data, markPriceOffset, params.MarkPriceE6)
	matcherctx.PutU64(data, lastUpdateSlotOffset, clock.Slot)
	data[regimeOffset] = params.Regime
	matcherctx.PutU64(data, vol7dAvgOffset, params.Vol7dAvgBps)
	matcherctx.PutU64(data, vol30dAvgOffset, params.Vol30dAvgBps)

	p.log.Debug().
		Uint64("old_vol", oldVol).
		Uint64("new_vol", params.CurrentVolBps).
		Uint64("mark", params.MarkPriceE6).
		Uint8("regime", params.Regime).
		Msg("oracle sync")
	return nil
}
