package escrow

import (
	"strconv"

	"tonescrow/core/types"
)

const (
	EventTypeDealFunded    = "deal.funded"
	EventTypeDealApproved  = "deal.approved"
	EventTypeDealCancelled = "deal.cancelled"
	EventTypeDealToppedUp  = "deal.topped_up"
	EventTypeWalletCodeSet = "deal.wallet_code_changed"
)

// NewFundedEvent returns the canonical payload emitted when funding
// completes and the buyer is recorded.
func NewFundedEvent(d *Deal) *types.Event { return newDealEvent(EventTypeDealFunded, d) }

// NewApprovedEvent returns the canonical payload emitted when the guarantor
// approves the deal and settlement pays the seller.
func NewApprovedEvent(d *Deal) *types.Event { return newDealEvent(EventTypeDealApproved, d) }

// NewCancelledEvent returns the canonical payload emitted when the guarantor
// cancels the deal and settlement refunds the buyer.
func NewCancelledEvent(d *Deal) *types.Event { return newDealEvent(EventTypeDealCancelled, d) }

// NewToppedUpEvent returns the payload emitted when the contract balance is
// raised without a state change.
func NewToppedUpEvent(d *Deal) *types.Event { return newDealEvent(EventTypeDealToppedUp, d) }

// NewWalletCodeChangedEvent returns the payload emitted when the seller
// replaces the jetton wallet code template.
func NewWalletCodeChangedEvent(d *Deal) *types.Event {
	return newDealEvent(EventTypeWalletCodeSet, d)
}

func newDealEvent(eventType string, d *Deal) *types.Event {
	attrs := make(map[string]string)
	if d == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["contextId"] = strconv.FormatUint(uint64(d.ContextID), 10)
	attrs["state"] = d.State.String()
	if d.Seller != nil {
		attrs["seller"] = d.Seller.String()
	}
	if d.Guarantor != nil {
		attrs["guarantor"] = d.Guarantor.String()
	}
	if d.Buyer != nil {
		attrs["buyer"] = d.Buyer.String()
	}
	if d.Amount != nil {
		attrs["amount"] = d.Amount.String()
	}
	attrs["royalty"] = strconv.FormatUint(uint64(d.Royalty), 10)
	if d.Asset.IsJetton() && d.Asset.Minter != nil {
		attrs["jettonMinter"] = d.Asset.Minter.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
