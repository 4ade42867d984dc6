package infra

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

// Config holds the full deployment configuration. LoadConfig reads the YAML
// file and then lets environment variables override the sensitive fields.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Gateway struct {
		URL          string `yaml:"url"`
		WSURL        string `yaml:"ws_url"`
		Principal    string `yaml:"principal"`
		SessionToken string `yaml:"session_token"`
		TimeoutSec   int    `yaml:"timeout_sec"`
	} `yaml:"gateway"`

	Exchange struct {
		Address string `yaml:"address"`
	} `yaml:"exchange"`

	Faucet struct {
		Address string `yaml:"address"`
	} `yaml:"faucet"`

	// Assets is the deployment's fixed token registry, in display order.
	Assets []struct {
		Symbol  string          `yaml:"symbol"`
		Address string          `yaml:"address"`
		Fee     decimal.Decimal `yaml:"fee"`
	} `yaml:"assets"`

	Custody struct {
		// DefaultTransferAmount is the per-click amount the CLI applies
		// when the caller does not pass one; the core itself always takes
		// the amount as an explicit parameter.
		DefaultTransferAmount decimal.Decimal `yaml:"default_transfer_amount"`
	} `yaml:"custody"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Gateway.URL, "http://") && !strings.HasPrefix(c.Gateway.URL, "https://") {
		return fmt.Errorf("invalid gateway URL: %s", c.Gateway.URL)
	}
	if c.Gateway.WSURL != "" && !strings.HasPrefix(c.Gateway.WSURL, "ws://") && !strings.HasPrefix(c.Gateway.WSURL, "wss://") {
		return fmt.Errorf("invalid gateway WS URL: %s", c.Gateway.WSURL)
	}
	if c.Exchange.Address == "" {
		return fmt.Errorf("exchange address is required")
	}
	if len(c.Assets) == 0 {
		return fmt.Errorf("at least one asset is required")
	}
	for i, a := range c.Assets {
		if a.Symbol == "" || a.Address == "" {
			return fmt.Errorf("asset %d: symbol and address are required", i)
		}
	}
	if c.Custody.DefaultTransferAmount.Sign() < 0 {
		return fmt.Errorf("default transfer amount must not be negative")
	}
	return nil
}

// RegistryAssets converts the configured asset list into domain assets, in
// declaration order.
func (c *Config) RegistryAssets() []domain.Asset {
	out := make([]domain.Asset, len(c.Assets))
	for i, a := range c.Assets {
		out[i] = domain.Asset{Symbol: a.Symbol, Address: a.Address, Fee: a.Fee}
	}
	return out
}

// DefaultTransferAmount returns the configured per-click amount, falling back
// to the deployment default of 500 when unset.
func (c *Config) DefaultTransferAmount() decimal.Decimal {
	if c.Custody.DefaultTransferAmount.Sign() > 0 {
		return c.Custody.DefaultTransferAmount
	}
	return decimal.NewFromInt(500)
}

// overrideWithEnv applies environment overrides for sensitive values.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("DEX_GATEWAY_URL"); url != "" {
		cfg.Gateway.URL = url
	}
	if url := os.Getenv("DEX_GATEWAY_WS_URL"); url != "" {
		cfg.Gateway.WSURL = url
	}
	if principal := os.Getenv("DEX_PRINCIPAL"); principal != "" {
		cfg.Gateway.Principal = principal
	}
	if token := os.Getenv("DEX_SESSION_TOKEN"); token != "" {
		cfg.Gateway.SessionToken = token
	}
}
