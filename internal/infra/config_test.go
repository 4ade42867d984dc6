package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

const testConfigYAML = `
app:
  name: dexclient
  version: "0.1.0"
gateway:
  url: http://localhost:8000
  ws_url: ws://localhost:8000/ws
  principal: aaaaa-aa
  session_token: local-dev-token
  timeout_sec: 10
exchange:
  address: dex-canister
faucet:
  address: faucet-canister
assets:
  - symbol: TGLD
    address: gold-ledger
    fee: 1
  - symbol: TSLV
    address: silver-ledger
    fee: 2
custody:
  default_transfer_amount: 500
logging:
  level: info
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, testConfigYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Gateway.URL != "http://localhost:8000" {
		t.Errorf("gateway URL = %s", cfg.Gateway.URL)
	}
	if len(cfg.Assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(cfg.Assets))
	}
	if cfg.Assets[0].Symbol != "TGLD" || !cfg.Assets[0].Fee.Equal(decimal.NewFromInt(1)) {
		t.Errorf("first asset = %+v", cfg.Assets[0])
	}
	if !cfg.DefaultTransferAmount().Equal(decimal.NewFromInt(500)) {
		t.Errorf("default transfer amount = %s", cfg.DefaultTransferAmount())
	}

	assets := cfg.RegistryAssets()
	if len(assets) != 2 || assets[1].Address != "silver-ledger" {
		t.Errorf("registry assets = %+v", assets)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("DEX_GATEWAY_URL", "https://gateway.example")
	t.Setenv("DEX_SESSION_TOKEN", "secret-from-env")

	cfg, err := LoadConfig(writeTestConfig(t, testConfigYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Gateway.URL != "https://gateway.example" {
		t.Errorf("env override missed, URL = %s", cfg.Gateway.URL)
	}
	if cfg.Gateway.SessionToken != "secret-from-env" {
		t.Errorf("env override missed, token = %s", cfg.Gateway.SessionToken)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad gateway url", func(c *Config) { c.Gateway.URL = "ftp://nope" }},
		{"bad ws url", func(c *Config) { c.Gateway.WSURL = "http://not-ws" }},
		{"missing exchange", func(c *Config) { c.Exchange.Address = "" }},
		{"no assets", func(c *Config) { c.Assets = nil }},
		{"asset missing address", func(c *Config) { c.Assets[0].Address = "" }},
		{"negative default amount", func(c *Config) { c.Custody.DefaultTransferAmount = decimal.NewFromInt(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeTestConfig(t, testConfigYAML))
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDefaultTransferAmountFallback(t *testing.T) {
	var cfg Config
	if !cfg.DefaultTransferAmount().Equal(decimal.NewFromInt(500)) {
		t.Errorf("fallback = %s, want 500", cfg.DefaultTransferAmount())
	}
}
