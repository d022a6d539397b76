package escrow

import (
	"reflect"
	"strconv"
	"testing"

	"tonescrow/core/types"
)

func TestDealEventsHaveDeterministicPayload(t *testing.T) {
	deal := jettonDeal()
	deal.Buyer = buyerAddr
	deal.State = DealFunded

	expected := map[string]string{
		"contextId":    strconv.FormatUint(uint64(deal.ContextID), 10),
		"state":        "funded",
		"seller":       sellerAddr.String(),
		"guarantor":    guarantorAddr.String(),
		"buyer":        buyerAddr.String(),
		"amount":       deal.Amount.String(),
		"royalty":      "1000",
		"jettonMinter": minterAddr.String(),
	}

	cases := []struct {
		name string
		fn   func(*Deal) *types.Event
		typ  string
	}{
		{"funded", NewFundedEvent, EventTypeDealFunded},
		{"approved", NewApprovedEvent, EventTypeDealApproved},
		{"cancelled", NewCancelledEvent, EventTypeDealCancelled},
		{"topped up", NewToppedUpEvent, EventTypeDealToppedUp},
		{"wallet code changed", NewWalletCodeChangedEvent, EventTypeWalletCodeSet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			evt := tc.fn(deal)
			if evt.Type != tc.typ {
				t.Fatalf("unexpected event type: %s", evt.Type)
			}
			if !reflect.DeepEqual(evt.Attributes, expected) {
				t.Fatalf("unexpected attributes:\n got %v\nwant %v", evt.Attributes, expected)
			}
		})
	}
}

func TestDealEventNilSafe(t *testing.T) {
	evt := NewFundedEvent(nil)
	if evt.Type != EventTypeDealFunded {
		t.Fatalf("unexpected type: %s", evt.Type)
	}
	if len(evt.Attributes) != 0 {
		t.Fatalf("nil deal must produce empty attributes")
	}
}
