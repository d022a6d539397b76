// Package jetton models the boundary to the external fungible-token
// standard: deterministic wallet address derivation and the subset of the
// wallet wire protocol the escrow contract speaks. The minter and wallet
// contracts themselves are an adopted standard, not reimplemented here.
package jetton

import (
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Wire operation tags of the token standard.
const (
	OpTransfer             uint32 = 0xf8a7ea5
	OpTransferNotification uint32 = 0x7362d09c
	OpExcesses             uint32 = 0xd53276db
)

// WalletData builds the initial data cell of a standard jetton wallet owned
// by the given holder: zero balance, owner, minter and the wallet code
// template.
func WalletData(owner, minter *address.Address, walletCode *cell.Cell) *cell.Cell {
	return cell.BeginCell().
		MustStoreCoins(0).
		MustStoreAddr(owner).
		MustStoreAddr(minter).
		MustStoreRef(walletCode).
		EndCell()
}

// WalletAddress derives the deterministic jetton wallet address for a holder
// from the minter address and wallet code template: the address is the hash
// of the wallet's initial state. Spoofed transfer notifications from any
// other contract fail this derivation.
func WalletAddress(owner, minter *address.Address, walletCode *cell.Cell) (*address.Address, error) {
	if owner == nil || minter == nil || walletCode == nil {
		return nil, fmt.Errorf("jetton: owner, minter and wallet code are required")
	}
	stateInit := &tlb.StateInit{
		Code: walletCode,
		Data: WalletData(owner, minter, walletCode),
	}
	stateCell, err := tlb.ToCell(stateInit)
	if err != nil {
		return nil, fmt.Errorf("jetton: serialize state init: %w", err)
	}
	return address.NewAddress(0, byte(owner.Workchain()), stateCell.Hash()), nil
}

// TransferNotification is the funding signal a receiving wallet forwards to
// its owner after an inbound token transfer. Sender is the original sender
// of the tokens, not the wallet contract.
type TransferNotification struct {
	QueryID uint64
	Amount  *big.Int
	Sender  *address.Address
}

// ParseTransferNotification decodes a notification body. The slice must be
// positioned after the 32-bit operation tag.
func ParseTransferNotification(body *cell.Slice) (*TransferNotification, error) {
	queryID, err := body.LoadUInt(64)
	if err != nil {
		return nil, fmt.Errorf("jetton: notification query id: %w", err)
	}
	amount, err := body.LoadBigCoins()
	if err != nil {
		return nil, fmt.Errorf("jetton: notification amount: %w", err)
	}
	sender, err := body.LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("jetton: notification sender: %w", err)
	}
	return &TransferNotification{QueryID: queryID, Amount: amount, Sender: sender}, nil
}

// BuildTransferNotification assembles a notification body as a wallet
// contract would emit it.
func BuildTransferNotification(queryID uint64, amount *big.Int, sender *address.Address) *cell.Cell {
	return cell.BeginCell().
		MustStoreUInt(uint64(OpTransferNotification), 32).
		MustStoreUInt(queryID, 64).
		MustStoreBigCoins(amount).
		MustStoreAddr(sender).
		MustStoreBoolBit(false). // forward_payload in place, empty
		EndCell()
}

// Transfer instructs a wallet to forward holdings to a destination.
type Transfer struct {
	QueryID     uint64
	Amount      *big.Int
	Destination *address.Address
	ResponseTo  *address.Address
}

// BuildTransfer assembles the wallet payout instruction. No custom payload,
// no forwarded value: the escrow contract only redirects holdings.
func BuildTransfer(t Transfer) *cell.Cell {
	return cell.BeginCell().
		MustStoreUInt(uint64(OpTransfer), 32).
		MustStoreUInt(t.QueryID, 64).
		MustStoreBigCoins(t.Amount).
		MustStoreAddr(t.Destination).
		MustStoreAddr(t.ResponseTo).
		MustStoreBoolBit(false). // no custom payload
		MustStoreCoins(0).       // no forwarded value
		MustStoreBoolBit(false). // forward_payload in place, empty
		EndCell()
}

// ParseTransfer decodes a payout instruction body, tag included. Used by the
// sandbox and tests to assert on settlement instructions.
func ParseTransfer(body *cell.Cell) (*Transfer, error) {
	s := body.BeginParse()
	op, err := s.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("jetton: transfer op: %w", err)
	}
	if uint32(op) != OpTransfer {
		return nil, fmt.Errorf("jetton: unexpected op 0x%x", op)
	}
	t := &Transfer{}
	if t.QueryID, err = s.LoadUInt(64); err != nil {
		return nil, fmt.Errorf("jetton: transfer query id: %w", err)
	}
	if t.Amount, err = s.LoadBigCoins(); err != nil {
		return nil, fmt.Errorf("jetton: transfer amount: %w", err)
	}
	if t.Destination, err = s.LoadAddr(); err != nil {
		return nil, fmt.Errorf("jetton: transfer destination: %w", err)
	}
	if t.ResponseTo, err = s.LoadAddr(); err != nil {
		return nil, fmt.Errorf("jetton: transfer response destination: %w", err)
	}
	return t, nil
}
