package config

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"tonescrow/contract/escrow"
)

// Validate checks every field the service cannot start without. Deal
// parameter errors are reported here, before anything is deployed, because
// a deployed instance cannot be patched.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress is required")
	}
	return c.Deal.validate()
}

func (dc DealConfig) validate() error {
	if _, err := dc.ContractAddr(); err != nil {
		return err
	}
	if _, err := dc.InitialBalanceAmount(); err != nil {
		return err
	}
	deal, err := dc.Deal()
	if err != nil {
		return err
	}
	if _, err := escrow.SanitizeDeal(deal); err != nil {
		return fmt.Errorf("config: deal: %w", err)
	}
	return nil
}

// ContractAddr parses the configured contract account address.
func (dc DealConfig) ContractAddr() (*address.Address, error) {
	addr, err := address.ParseAddr(strings.TrimSpace(dc.ContractAddress))
	if err != nil {
		return nil, fmt.Errorf("config: ContractAddress: %w", err)
	}
	return addr, nil
}

// InitialBalanceAmount parses the deployment balance; empty means zero.
func (dc DealConfig) InitialBalanceAmount() (*big.Int, error) {
	trimmed := strings.TrimSpace(dc.InitialBalance)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	balance, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || balance.Sign() < 0 {
		return nil, fmt.Errorf("config: InitialBalance: invalid amount %q", dc.InitialBalance)
	}
	return balance, nil
}

// Deal builds the write-once deal record from the configuration.
func (dc DealConfig) Deal() (*escrow.Deal, error) {
	seller, err := address.ParseAddr(strings.TrimSpace(dc.Seller))
	if err != nil {
		return nil, fmt.Errorf("config: Seller: %w", err)
	}
	guarantor, err := address.ParseAddr(strings.TrimSpace(dc.Guarantor))
	if err != nil {
		return nil, fmt.Errorf("config: Guarantor: %w", err)
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(dc.Amount), 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("config: Amount: invalid amount %q", dc.Amount)
	}
	deal := &escrow.Deal{
		ContextID: dc.ContextID,
		Seller:    seller,
		Guarantor: guarantor,
		Amount:    amount,
		Royalty:   escrow.RoyaltyRate(dc.RoyaltyPercent),
		Asset:     escrow.NativeAsset(),
		State:     escrow.DealInit,
	}
	minterRaw := strings.TrimSpace(dc.JettonMinter)
	codeRaw := strings.TrimSpace(dc.WalletCodeBOC)
	if minterRaw == "" && codeRaw == "" {
		return deal, nil
	}
	if minterRaw == "" || codeRaw == "" {
		return nil, fmt.Errorf("config: JettonMinter and WalletCodeBOC must be set together")
	}
	minter, err := address.ParseAddr(minterRaw)
	if err != nil {
		return nil, fmt.Errorf("config: JettonMinter: %w", err)
	}
	boc, err := base64.StdEncoding.DecodeString(codeRaw)
	if err != nil {
		return nil, fmt.Errorf("config: WalletCodeBOC: %w", err)
	}
	walletCode, err := cell.FromBOC(boc)
	if err != nil {
		return nil, fmt.Errorf("config: WalletCodeBOC: %w", err)
	}
	deal.Asset = escrow.JettonAsset(minter, walletCode)
	return deal, nil
}
