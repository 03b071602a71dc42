package solver

import (
	solana "github.com/gagliardetto/solana-go"

	"percolator-go/internal/host"
	"percolator-go/internal/matcherctx"
	"percolator-go/internal/privacymatcher"
)

// HostVenue adapts a registered privacy matcher into the engine's Venue,
// signing price updates as the solver and matches as the risk-engine
// authority.
type HostVenue struct {
	registry  *host.Registry
	programID solana.PublicKey
	solver    *matcherctx.Account
	authority *matcherctx.Account
	ctxAcc    *matcherctx.Account
}

// NewHostVenue binds the venue to one matcher context.
func NewHostVenue(registry *host.Registry, programID solana.PublicKey, solver, authority, ctxAcc *matcherctx.Account) *HostVenue {
	return &HostVenue{
		registry:  registry,
		programID: programID,
		solver:    solver,
		authority: authority,
		ctxAcc:    ctxAcc,
	}
}

// PushPrice refreshes the matcher's mark as the solver.
func (v *HostVenue) PushPrice(priceE6 uint64) error {
	accounts := []*matcherctx.Account{v.solver, v.ctxAcc}
	return v.registry.Invoke(v.programID, accounts, privacymatcher.PriceUpdateInstruction(priceE6))
}

// Match requests an execution price for the given size.
func (v *HostVenue) Match(sizeE6 uint64) error {
	accounts := []*matcherctx.Account{v.authority, v.ctxAcc}
	return v.registry.Invoke(v.programID, accounts, privacymatcher.MatchInstruction(sizeE6))
}

// ExecPrice reads back the most recent execution price.
func (v *HostVenue) ExecPrice() uint64 {
	return matcherctx.ReadExecPrice(v.ctxAcc.Data)
}
