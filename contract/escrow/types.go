package escrow

import (
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// DealState is the funding lifecycle of a deal. There is no stored terminal
// state: settlement destroys the account instead of flagging it.
type DealState uint8

const (
	DealInit DealState = iota
	DealFunded
)

// Valid reports whether the state value is within the supported range.
func (s DealState) Valid() bool {
	switch s {
	case DealInit, DealFunded:
		return true
	default:
		return false
	}
}

func (s DealState) String() string {
	switch s {
	case DealInit:
		return "init"
	case DealFunded:
		return "funded"
	default:
		return fmt.Sprintf("state_%d", uint8(s))
	}
}

// AssetKind distinguishes the two settlement paths a deal can be configured
// with.
type AssetKind uint8

const (
	AssetNative AssetKind = iota
	AssetJetton
)

// Asset is the tagged variant threaded through dispatch and settlement:
// either the chain's native currency, or a jetton identified by its minter
// together with the wallet code template used to derive the deal's expected
// jetton wallet.
type Asset struct {
	Kind       AssetKind
	Minter     *address.Address
	WalletCode *cell.Cell
}

// NativeAsset returns the native-currency asset configuration.
func NativeAsset() Asset {
	return Asset{Kind: AssetNative}
}

// JettonAsset returns a jetton asset configuration for the given minter and
// wallet code template.
func JettonAsset(minter *address.Address, walletCode *cell.Cell) Asset {
	return Asset{Kind: AssetJetton, Minter: minter, WalletCode: walletCode}
}

// IsJetton reports whether the deal settles in a jetton rather than native
// currency.
func (a Asset) IsJetton() bool { return a.Kind == AssetJetton }

// Deal is the sole persistent record of a contract instance. All fields
// except Buyer, State and the jetton wallet code are fixed at construction.
type Deal struct {
	ContextID uint32
	Seller    *address.Address
	Guarantor *address.Address
	Amount    *big.Int
	Royalty   RoyaltyRate
	Asset     Asset
	Buyer     *address.Address // nil until funding succeeds
	State     DealState
}

// Clone returns a deep copy so callers can mutate without affecting the
// stored instance.
func (d *Deal) Clone() *Deal {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Amount != nil {
		clone.Amount = new(big.Int).Set(d.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// SanitizeDeal validates the supplied deal definition and returns a cloned
// instance with a non-nil amount. The original value is not mutated.
func SanitizeDeal(d *Deal) (*Deal, error) {
	if d == nil {
		return nil, fmt.Errorf("nil deal")
	}
	clone := d.Clone()
	if clone.Seller == nil || clone.Seller.IsAddrNone() {
		return nil, fmt.Errorf("deal seller address required")
	}
	if clone.Guarantor == nil || clone.Guarantor.IsAddrNone() {
		return nil, fmt.Errorf("deal guarantor address required")
	}
	if clone.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("deal amount must be positive")
	}
	if !clone.Amount.IsUint64() {
		return nil, fmt.Errorf("deal amount exceeds 64-bit range")
	}
	if !clone.State.Valid() {
		return nil, fmt.Errorf("invalid deal state: %d", clone.State)
	}
	switch clone.Asset.Kind {
	case AssetNative:
		if clone.Asset.Minter != nil || clone.Asset.WalletCode != nil {
			return nil, fmt.Errorf("native deal must not carry jetton configuration")
		}
	case AssetJetton:
		if clone.Asset.Minter == nil || clone.Asset.Minter.IsAddrNone() {
			return nil, fmt.Errorf("jetton deal requires a minter address")
		}
		if clone.Asset.WalletCode == nil {
			return nil, fmt.Errorf("jetton deal requires a wallet code template")
		}
	default:
		return nil, fmt.Errorf("unsupported asset kind: %d", clone.Asset.Kind)
	}
	if clone.State == DealFunded && (clone.Buyer == nil || clone.Buyer.IsAddrNone()) {
		return nil, fmt.Errorf("funded deal requires a buyer address")
	}
	if clone.State == DealInit && clone.Buyer != nil {
		return nil, fmt.Errorf("buyer must be unset before funding")
	}
	return clone, nil
}

func addrEqual(a, b *address.Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.IsAddrNone() || b.IsAddrNone() {
		return a.IsAddrNone() && b.IsAddrNone()
	}
	if a.Workchain() != b.Workchain() {
		return false
	}
	return string(a.Data()) == string(b.Data())
}
