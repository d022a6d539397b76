package escrow

import (
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Persistent cell layout. The root carries the fixed-width scalar fields,
// the first reference carries the three role addresses, and an optional
// second reference carries the jetton configuration:
//
//	root:  context_id(32) state(2) amount(64) royalty(32) jetton?(1)
//	ref 0: seller:addr guarantor:addr buyer:addr (addr_none until funded)
//	ref 1: minter:addr wallet_code:^cell (present only for jetton deals)
//
// Encoding and decoding are a bijection over sanitized deals; no validation
// beyond structural integrity happens here.

const dealStateBits = 2

// EncodeDeal serializes the deal record into its persistent cell tree.
func EncodeDeal(d *Deal) (*cell.Cell, error) {
	sanitized, err := SanitizeDeal(d)
	if err != nil {
		return nil, fmt.Errorf("encode deal: %w", err)
	}
	addrs := cell.BeginCell().
		MustStoreAddr(sanitized.Seller).
		MustStoreAddr(sanitized.Guarantor).
		MustStoreAddr(sanitized.Buyer).
		EndCell()

	root := cell.BeginCell().
		MustStoreUInt(uint64(sanitized.ContextID), 32).
		MustStoreUInt(uint64(sanitized.State), dealStateBits).
		MustStoreUInt(sanitized.Amount.Uint64(), 64).
		MustStoreUInt(uint64(sanitized.Royalty), 32).
		MustStoreRef(addrs)

	if sanitized.Asset.IsJetton() {
		assetCell := cell.BeginCell().
			MustStoreAddr(sanitized.Asset.Minter).
			MustStoreRef(sanitized.Asset.WalletCode).
			EndCell()
		root.MustStoreBoolBit(true).MustStoreRef(assetCell)
	} else {
		root.MustStoreBoolBit(false)
	}
	return root.EndCell(), nil
}

// DecodeDeal reconstructs the deal record from its persistent cell tree.
func DecodeDeal(c *cell.Cell) (*Deal, error) {
	if c == nil {
		return nil, fmt.Errorf("decode deal: nil cell")
	}
	s := c.BeginParse()
	contextID, err := s.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("decode deal: context id: %w", err)
	}
	state, err := s.LoadUInt(dealStateBits)
	if err != nil {
		return nil, fmt.Errorf("decode deal: state: %w", err)
	}
	amount, err := s.LoadUInt(64)
	if err != nil {
		return nil, fmt.Errorf("decode deal: amount: %w", err)
	}
	royalty, err := s.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("decode deal: royalty: %w", err)
	}
	addrs, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("decode deal: address ref: %w", err)
	}
	seller, err := addrs.LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("decode deal: seller: %w", err)
	}
	guarantor, err := addrs.LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("decode deal: guarantor: %w", err)
	}
	buyer, err := addrs.LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("decode deal: buyer: %w", err)
	}
	deal := &Deal{
		ContextID: uint32(contextID),
		Seller:    seller,
		Guarantor: guarantor,
		Amount:    new(big.Int).SetUint64(amount),
		Royalty:   RoyaltyRate(royalty),
		Asset:     NativeAsset(),
		State:     DealState(state),
	}
	if !buyer.IsAddrNone() {
		deal.Buyer = buyer
	}
	hasJetton, err := s.LoadBoolBit()
	if err != nil {
		return nil, fmt.Errorf("decode deal: asset presence: %w", err)
	}
	if hasJetton {
		assetSlice, err := s.LoadRef()
		if err != nil {
			return nil, fmt.Errorf("decode deal: asset ref: %w", err)
		}
		minter, err := assetSlice.LoadAddr()
		if err != nil {
			return nil, fmt.Errorf("decode deal: minter: %w", err)
		}
		walletCode, err := assetSlice.LoadRefCell()
		if err != nil {
			return nil, fmt.Errorf("decode deal: wallet code: %w", err)
		}
		deal.Asset = JettonAsset(minter, walletCode)
	}
	if _, err := SanitizeDeal(deal); err != nil {
		return nil, fmt.Errorf("decode deal: %w", err)
	}
	return deal, nil
}
