package jpymatcher

import (
	"fmt"

	"github.com/rs/zerolog"

	"percolator-go/internal/matcherctx"
)

// Program is the compliance-gated matcher dispatcher.
type Program struct {
	log zerolog.Logger
}

// New constructs the program with a component-scoped logger.
func New(log zerolog.Logger) *Program {
	return &Program{log: log.With().Str("matcher", "jpy").Logger()}
}

// Process dispatches on the leading instruction tag.
func (p *Program) Process(accounts []*matcherctx.Account, data []byte, clock matcherctx.Clock) error {
	if len(data) == 0 {
		return matcherctx.ErrInvalidInstruction
	}
	switch data[0] {
	case matcherctx.TagMatch:
		return p.match(accounts, data[1:], clock)
	case matcherctx.TagInit:
		return p.init(accounts, data[1:])
	case matcherctx.TagSync:
		return p.oracleUpdate(accounts, data[1:])
	default:
		return fmt.Errorf("%w: unknown tag %#02x", matcherctx.ErrInvalidInstruction, data[0])
	}
}

// init writes the shared header plus compliance configuration.
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
	data[minKycTierOffset] = byte(params.MinKycTier)
	if params.RequireSameJurisdiction {
		data[requireSameJurOffset] = 1
	}

	copy(data[kycRegistryOffset:kycRegistryOffset+32], params.KycRegistry[:])
	matcherctx.PutU32(data, baseSpreadOffset, params.BaseSpreadBps)
	matcherctx.PutU32(data, kycDiscountOffset, params.KycDiscountBps)
	matcherctx.PutU32(data, maxSpreadOffset, params.MaxSpreadBps)
	data[blockedJurOffset] = params.BlockedJurisdictions
	matcherctx.Zero(data, blockedJurOffset+1, oraclePriceOffset)
	matcherctx.PutU64(data, oraclePriceOffset, 0)
	matcherctx.PutU64(data, dailyCapOffset, params.DailyCap)
	matcherctx.PutU64(data, dayVolumeOffset, 0)
	matcherctx.PutI64(data, dayResetOffset, 0)
	matcherctx.PutU32(data, impactKOffset, params.ImpactKBps)
	matcherctx.PutU128(data, liquidityOffset, params.LiquidityE6)
	matcherctx.PutU128(data, maxFillOffset, params.MaxFill)
	matcherctx.Zero(data, reservedOffset, matcherctx.CtxSize)

	p.log.Info().
		Str("authority", auth.Key.String()).
		Str("min_tier", params.MinKycTier.String()).
		Bool("same_jurisdiction", params.RequireSameJurisdiction).
		Uint8("blocked_mask", params.BlockedJurisdictions).
		Uint64("daily_cap", params.DailyCap).
		Msg("init")
	return nil
}

// match runs the eligibility pipeline, then prices with the tier discount.
// Daily volume is committed only after the price write succeeds.
// Accounts: [0] authorization key (signer), [1] context (writable),
// [2] counterparty identity record (required when a minimum tier is set),
// [3] liquidity provider identity record (optional).
func (p *Program) match(accounts []*matcherctx.Account, payload []byte, clock matcherctx.Clock) error {
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

	counterparty, provider, err := p.loadIdentities(data, accounts)
	if err != nil {
		return err
	}
	volume, reset, err := checkEligibility(data, counterparty, provider, sizeE6, clock.Unix)
	if err != nil {
		return err
	}

	baseSpread := uint64(matcherctx.GetU32(data, baseSpreadOffset))
	discount := uint64(0)
	if counterparty != nil && counterparty.Tier >= TierInstitutional {
		discount = uint64(matcherctx.GetU32(data, kycDiscountOffset))
	}
	effective := baseSpread - min(baseSpread, discount)
	totalSpread := min(effective, uint64(matcherctx.GetU32(data, maxSpreadOffset)))

	execPrice, err := matcherctx.ComputeExecPrice(mark, totalSpread)
	if err != nil {
		return err
	}

	matcherctx.WriteExecPrice(data, execPrice)
	matcherctx.PutU64(data, dayVolumeOffset, volume+sizeE6)
	if reset {
		matcherctx.PutI64(data, dayResetOffset, clock.Unix)
	}

	p.log.Debug().
		Uint64("price", execPrice).
		Uint64("spread", totalSpread).
		Uint64("size", sizeE6).
		Uint64("discount", discount).
		Msg("match")
	return nil
}

// loadIdentities parses the optional identity record accounts and pins them
// to the bound registry. A missing counterparty record is only acceptable
// when no minimum tier is configured.
func (p *Program) loadIdentities(data []byte, accounts []*matcherctx.Account) (counterparty, provider *IdentityRecord, err error) {
	registry := readKycRegistry(data)
	parse := func(acc *matcherctx.Account) (*IdentityRecord, error) {
		rec, err := ParseIdentityRecord(acc.Data)
		if err != nil {
			return nil, err
		}
		if !rec.Registry.Equals(registry) {
			return nil, ErrIdentityRegistryMismatch
		}
		return &rec, nil
	}

	if len(accounts) > 2 && accounts[2] != nil {
		if counterparty, err = parse(accounts[2]); err != nil {
			return nil, nil, err
		}
	}
	if counterparty == nil && KycTier(data[minKycTierOffset]) > TierBasic {
		return nil, nil, fmt.Errorf("%w: no identity record supplied", ErrInsufficientKycTier)
	}
	if len(accounts) > 3 && accounts[3] != nil {
		if provider, err = parse(accounts[3]); err != nil {
			return nil, nil, err
		}
	}
	return counterparty, provider, nil
}

// checkEligibility is the five-step compliance pipeline. It returns the
// effective daily volume before this trade and whether the day window rolled,
// so the caller can commit both only on the success path.
func checkEligibility(data []byte, counterparty, provider *IdentityRecord, sizeE6 uint64, now int64) (volume uint64, reset bool, err error) {
	if counterparty != nil {
		if counterparty.Tier < KycTier(data[minKycTierOffset]) {
			return 0, false, fmt.Errorf("%w: have %s, need %s",
				ErrInsufficientKycTier, counterparty.Tier, KycTier(data[minKycTierOffset]))
		}
		if counterparty.Expiry != 0 && now > counterparty.Expiry {
			return 0, false, ErrIdentityExpired
		}
		if counterparty.Jurisdiction < jurisdictionCount &&
			data[blockedJurOffset]&(1<<counterparty.Jurisdiction) != 0 {
			return 0, false, fmt.Errorf("%w: code %d", ErrJurisdictionBlocked, counterparty.Jurisdiction)
		}
		if data[requireSameJurOffset] != 0 && provider != nil &&
			counterparty.Jurisdiction != provider.Jurisdiction {
			return 0, false, ErrJurisdictionMismatch
		}
	}

	volume = matcherctx.GetU64(data, dayVolumeOffset)
	lastReset := matcherctx.GetI64(data, dayResetOffset)
	if now > lastReset+secondsPerDay {
		volume = 0
		reset = true
	}
	cap := matcherctx.GetU64(data, dailyCapOffset)
	if cap != 0 && volume+sizeE6 > cap {
		return 0, false, fmt.Errorf("%w: %d + %d over cap %d", ErrDailyCapExceeded, volume, sizeE6, cap)
	}
	return volume, reset, nil
}

// oracleUpdate refreshes the mark price. A zero price is rejected so the
// unsynced sentinel can never be written back deliberately.
// Accounts: [0] authorization key (signer), [1] context (writable).
func (p *Program) oracleUpdate(accounts []*matcherctx.Account, payload []byte) error {
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
	price := matcherctx.GetU64(payload, 0)
	if price == 0 {
		return ErrZeroPrice
	}

	matcherctx.PutU64(ctxAcc.Data, oraclePriceOffset, price)
	p.log.Debug().Uint64("price", price).Msg("oracle update")
	return nil
}
