package escrow

import (
	"fmt"
	"math/big"
)

// Read-only queries mirroring the contract's get-methods. None of them
// mutate state.

// State returns the deal's current funding state.
func (e *Engine) State() (DealState, error) {
	deal, err := e.Info()
	if err != nil {
		return 0, err
	}
	return deal.State, nil
}

// GuarantorRoyalty returns the royalty the guarantor would receive on
// approval with the current parameters, cap applied.
func (e *Engine) GuarantorRoyalty() (*big.Int, error) {
	deal, err := e.Info()
	if err != nil {
		return nil, err
	}
	return RoyaltyAmount(deal.Amount, deal.Royalty), nil
}

// Info returns a copy of the full deal record.
func (e *Engine) Info() (*Deal, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	deal, err := e.state.LoadDeal()
	if err != nil {
		return nil, fmt.Errorf("escrow engine: load deal: %w", err)
	}
	return deal.Clone(), nil
}
