package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func testAssets() []Asset {
	return []Asset{
		{Symbol: "TGLD", Address: "gold-ledger", Fee: decimal.NewFromInt(1)},
		{Symbol: "TSLV", Address: "silver-ledger", Fee: decimal.NewFromInt(2)},
	}
}

func TestRegistryLookup(t *testing.T) {
	reg, err := NewRegistry(testAssets())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	gold, err := reg.BySymbol("TGLD")
	if err != nil {
		t.Fatalf("BySymbol(TGLD) failed: %v", err)
	}
	if gold.Address != "gold-ledger" {
		t.Errorf("expected gold-ledger, got %s", gold.Address)
	}

	silver, err := reg.ByAddress("silver-ledger")
	if err != nil {
		t.Fatalf("ByAddress(silver-ledger) failed: %v", err)
	}
	if silver.Symbol != "TSLV" {
		t.Errorf("expected TSLV, got %s", silver.Symbol)
	}

	if i, err := reg.IndexOf("silver-ledger"); err != nil || i != 1 {
		t.Errorf("IndexOf(silver-ledger) = %d, %v; want 1, nil", i, err)
	}
}

func TestRegistryFailsClosed(t *testing.T) {
	reg, _ := NewRegistry(testAssets())

	tests := []struct {
		name string
		do   func() error
		kind string
	}{
		{"unknown symbol", func() error { _, err := reg.BySymbol("TCOP"); return err }, "symbol"},
		{"unknown address", func() error { _, err := reg.ByAddress("copper-ledger"); return err }, "address"},
		{"unknown index address", func() error { _, err := reg.IndexOf("copper-ledger"); return err }, "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.do()
			var regErr *RegistryError
			if !errors.As(err, &regErr) {
				t.Fatalf("expected *RegistryError, got %v", err)
			}
			if regErr.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", regErr.Kind, tt.kind)
			}
		})
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	dupSymbol := append(testAssets(), Asset{Symbol: "TGLD", Address: "other-ledger"})
	if _, err := NewRegistry(dupSymbol); err == nil {
		t.Error("expected error for duplicate symbol")
	}

	dupAddr := append(testAssets(), Asset{Symbol: "TCOP", Address: "gold-ledger"})
	if _, err := NewRegistry(dupAddr); err == nil {
		t.Error("expected error for duplicate address")
	}

	if _, err := NewRegistry(nil); err == nil {
		t.Error("expected error for empty registry")
	}
}

func TestRegistryAssetsIsACopy(t *testing.T) {
	reg, _ := NewRegistry(testAssets())

	assets := reg.Assets()
	assets[0].Symbol = "MUTATED"

	again, _ := reg.BySymbol("TGLD")
	if again.Symbol != "TGLD" {
		t.Error("mutating the returned slice must not affect the registry")
	}
}

func TestOrderMirror(t *testing.T) {
	o := Order{
		ID:         7,
		FromAsset:  "gold-ledger",
		FromAmount: decimal.NewFromInt(100),
		ToAsset:    "silver-ledger",
		ToAmount:   decimal.NewFromInt(50),
	}

	m := o.Mirror()
	if m.FromAsset != "silver-ledger" || m.ToAsset != "gold-ledger" {
		t.Errorf("mirror sides wrong: %+v", m)
	}
	if !m.FromAmount.Equal(decimal.NewFromInt(50)) || !m.ToAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("mirror amounts wrong: %+v", m)
	}
	if m.ID != 0 {
		t.Errorf("mirror must not carry the target order id, got %d", m.ID)
	}
}
