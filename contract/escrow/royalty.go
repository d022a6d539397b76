package escrow

import "math/big"

// RoyaltyRate is the guarantor's royalty as a fixed-point percent with three
// implied decimal digits: a stored value of 1000 means 1.000%.
type RoyaltyRate uint32

const (
	// royaltyScale converts a capped rate into a fraction of the deal
	// amount: the percent carries a x1000 fixed-point factor and the
	// whole-to-fraction conversion adds another x100.
	royaltyScale = 100_000

	// RoyaltyCap bounds the effective rate at 90% of the deal amount. A
	// misconfigured or malicious 100%+ rate cannot starve the seller.
	RoyaltyCap RoyaltyRate = 90_000
)

// Capped returns the rate bounded by RoyaltyCap.
func (r RoyaltyRate) Capped() RoyaltyRate {
	if r > RoyaltyCap {
		return RoyaltyCap
	}
	return r
}

// Percent returns the rate as a human-readable percentage.
func (r RoyaltyRate) Percent() float64 { return float64(r) / 1000 }

// RoyaltyAmount computes the guarantor's cut of the given deal amount with
// the cap applied before division. The result never exceeds 90% of amount.
func RoyaltyAmount(amount *big.Int, rate RoyaltyRate) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	royalty := new(big.Int).Mul(amount, big.NewInt(int64(rate.Capped())))
	return royalty.Div(royalty, big.NewInt(royaltyScale))
}

// SplitSettlement returns the seller and guarantor shares of the deal amount
// for an approval. The shares always sum to amount.
func SplitSettlement(amount *big.Int, rate RoyaltyRate) (seller, royalty *big.Int) {
	royalty = RoyaltyAmount(amount, rate)
	seller = new(big.Int).Sub(amount, royalty)
	return seller, royalty
}
