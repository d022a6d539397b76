package config

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"tonescrow/contract/escrow"
)

func testAddr(fill byte) *address.Address {
	return address.NewAddress(0, 0, bytes.Repeat([]byte{fill}, 32))
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "escrowd.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func nativeConfig(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf(`ListenAddress = ":8085"
Environment = "test"

[deal]
ContextID = 7
ContractAddress = %q
Seller = %q
Guarantor = %q
Amount = "1000000000"
RoyaltyPercent = 1000
InitialBalance = "50000000"
`, testAddr(0xEE).String(), testAddr(0x01).String(), testAddr(0x02).String())
}

func TestLoadNativeDeal(t *testing.T) {
	path := writeConfig(t, nativeConfig(t))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8085", cfg.ListenAddress)

	deal, err := cfg.Deal.Deal()
	require.NoError(t, err)
	require.Equal(t, uint32(7), deal.ContextID)
	require.Equal(t, escrow.DealInit, deal.State)
	require.Equal(t, escrow.RoyaltyRate(1000), deal.Royalty)
	require.Equal(t, "1000000000", deal.Amount.String())
	require.False(t, deal.Asset.IsJetton())

	balance, err := cfg.Deal.InitialBalanceAmount()
	require.NoError(t, err)
	require.Equal(t, "50000000", balance.String())
}

func TestLoadJettonDeal(t *testing.T) {
	walletCode := cell.BeginCell().MustStoreUInt(0xC0DE, 32).EndCell()
	encoded := base64.StdEncoding.EncodeToString(walletCode.ToBOC())
	contents := nativeConfig(t) + fmt.Sprintf(`JettonMinter = %q
WalletCodeBOC = %q
`, testAddr(0x04).String(), encoded)

	cfg, err := Load(writeConfig(t, contents))
	require.NoError(t, err)
	deal, err := cfg.Deal.Deal()
	require.NoError(t, err)
	require.True(t, deal.Asset.IsJetton())
	require.Equal(t, walletCode.Hash(), deal.Asset.WalletCode.Hash())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	contents := nativeConfig(t) + "Royalty = 5\n"
	_, err := Load(writeConfig(t, contents))
	require.ErrorContains(t, err, "unknown keys")
}

func TestLoadRejectsInvalidDeal(t *testing.T) {
	t.Run("bad amount", func(t *testing.T) {
		contents := nativeConfig(t)
		contents = replaceLine(t, contents, `Amount = "1000000000"`, `Amount = "zero"`)
		_, err := Load(writeConfig(t, contents))
		require.ErrorContains(t, err, "Amount")
	})
	t.Run("minter without wallet code", func(t *testing.T) {
		contents := nativeConfig(t) + fmt.Sprintf("JettonMinter = %q\n", testAddr(0x04).String())
		_, err := Load(writeConfig(t, contents))
		require.ErrorContains(t, err, "must be set together")
	})
	t.Run("bad seller address", func(t *testing.T) {
		contents := replaceLine(t, nativeConfig(t),
			fmt.Sprintf("Seller = %q", testAddr(0x01).String()),
			`Seller = "not-an-address"`)
		_, err := Load(writeConfig(t, contents))
		require.ErrorContains(t, err, "Seller")
	})
}

func replaceLine(t *testing.T, contents, old, updated string) string {
	t.Helper()
	require.Contains(t, contents, old)
	return string(bytes.Replace([]byte(contents), []byte(old), []byte(updated), 1))
}
