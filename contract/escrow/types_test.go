package escrow

import (
	"math/big"
	"testing"
)

func TestSanitizeDealValid(t *testing.T) {
	for _, deal := range []*Deal{nativeDeal(), jettonDeal()} {
		sanitized, err := SanitizeDeal(deal)
		if err != nil {
			t.Fatalf("sanitize: %v", err)
		}
		if sanitized == deal {
			t.Fatalf("sanitize must return a clone")
		}
		if sanitized.Amount == deal.Amount {
			t.Fatalf("sanitize must clone the amount pointer")
		}
	}
}

func TestSanitizeDealRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Deal)
	}{
		{"missing seller", func(d *Deal) { d.Seller = nil }},
		{"missing guarantor", func(d *Deal) { d.Guarantor = nil }},
		{"zero amount", func(d *Deal) { d.Amount = big.NewInt(0) }},
		{"negative amount", func(d *Deal) { d.Amount = big.NewInt(-5) }},
		{"amount beyond 64 bits", func(d *Deal) { d.Amount = new(big.Int).Lsh(big.NewInt(1), 65) }},
		{"invalid state", func(d *Deal) { d.State = DealState(9) }},
		{"funded without buyer", func(d *Deal) { d.State = DealFunded }},
		{"buyer before funding", func(d *Deal) { d.Buyer = buyerAddr }},
		{"native with minter", func(d *Deal) { d.Asset.Minter = minterAddr }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deal := nativeDeal()
			tc.mutate(deal)
			if _, err := SanitizeDeal(deal); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}

	t.Run("jetton without wallet code", func(t *testing.T) {
		deal := jettonDeal()
		deal.Asset.WalletCode = nil
		if _, err := SanitizeDeal(deal); err == nil {
			t.Fatalf("expected rejection")
		}
	})
}

func TestDealStateStrings(t *testing.T) {
	if DealInit.String() != "init" || DealFunded.String() != "funded" {
		t.Fatalf("unexpected state labels")
	}
	if !DealInit.Valid() || !DealFunded.Valid() || DealState(3).Valid() {
		t.Fatalf("state validity misreported")
	}
}
