package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config captures runtime configuration for the escrowd service: where to
// listen, where to persist the account snapshot, and the write-once deal
// parameters fixed at deployment.
type Config struct {
	ListenAddress string     `toml:"ListenAddress"`
	DataDir       string     `toml:"DataDir"`
	Environment   string     `toml:"Environment"`
	Deal          DealConfig `toml:"deal"`
}

// DealConfig is the deployment configuration of a single deal instance.
// Every field except the jetton pair is required.
type DealConfig struct {
	ContextID       uint32 `toml:"ContextID"`
	ContractAddress string `toml:"ContractAddress"`
	Seller          string `toml:"Seller"`
	Guarantor       string `toml:"Guarantor"`
	// Amount is the required funding quantity in the smallest unit of the
	// configured asset, as a decimal string.
	Amount string `toml:"Amount"`
	// RoyaltyPercent is the guarantor royalty as a fixed-point percent
	// with three implied decimals: 1000 means 1.000%.
	RoyaltyPercent uint32 `toml:"RoyaltyPercent"`
	// JettonMinter switches the deal to the jetton asset kind when set.
	JettonMinter string `toml:"JettonMinter"`
	// WalletCodeBOC is the base64 serialized jetton wallet code template;
	// required exactly when JettonMinter is set.
	WalletCodeBOC string `toml:"WalletCodeBOC"`
	// InitialBalance is the native balance attached at deployment, as a
	// decimal string. Defaults to zero.
	InitialBalance string `toml:"InitialBalance"`
}

// Load reads and validates the configuration at the given path. Unknown
// keys are rejected so typos cannot silently drop deal parameters.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress: ":8080",
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
