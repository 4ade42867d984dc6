package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Asset identifies one fungible token ledger handled by the DEX.
// Address is the ledger's principal, unique per deployment.
type Asset struct {
	Symbol  string
	Address string
	Fee     decimal.Decimal
}

// Registry is the fixed, ordered set of assets known to this deployment.
// It is built once at startup from configuration and never mutated;
// record ordering in snapshots follows registry order.
type Registry struct {
	assets    []Asset
	bySymbol  map[string]int
	byAddress map[string]int
}

// NewRegistry builds a registry from the configured asset list.
// Duplicate symbols or addresses are a configuration fault.
func NewRegistry(assets []Asset) (*Registry, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("registry requires at least one asset")
	}

	r := &Registry{
		assets:    make([]Asset, len(assets)),
		bySymbol:  make(map[string]int, len(assets)),
		byAddress: make(map[string]int, len(assets)),
	}
	copy(r.assets, assets)

	for i, a := range r.assets {
		if a.Symbol == "" || a.Address == "" {
			return nil, fmt.Errorf("asset %d: symbol and address are required", i)
		}
		if _, dup := r.bySymbol[a.Symbol]; dup {
			return nil, fmt.Errorf("duplicate asset symbol %q", a.Symbol)
		}
		if _, dup := r.byAddress[a.Address]; dup {
			return nil, fmt.Errorf("duplicate asset address %q", a.Address)
		}
		r.bySymbol[a.Symbol] = i
		r.byAddress[a.Address] = i
	}

	return r, nil
}

// Len returns the number of registered assets.
func (r *Registry) Len() int {
	return len(r.assets)
}

// Assets returns a copy of the registered assets in registry order.
func (r *Registry) Assets() []Asset {
	out := make([]Asset, len(r.assets))
	copy(out, r.assets)
	return out
}

// At returns the asset at the given registry index.
func (r *Registry) At(index int) (Asset, error) {
	if index < 0 || index >= len(r.assets) {
		return Asset{}, &ValidationError{Field: "assetIndex", Reason: fmt.Sprintf("index %d out of range [0,%d)", index, len(r.assets))}
	}
	return r.assets[index], nil
}

// BySymbol resolves a display symbol to its asset. Resolution fails closed:
// an unknown symbol yields a RegistryError, never a zero Asset.
func (r *Registry) BySymbol(symbol string) (Asset, error) {
	i, ok := r.bySymbol[symbol]
	if !ok {
		return Asset{}, &RegistryError{Kind: "symbol", Value: symbol}
	}
	return r.assets[i], nil
}

// ByAddress resolves a ledger address to its asset, failing closed like BySymbol.
func (r *Registry) ByAddress(address string) (Asset, error) {
	i, ok := r.byAddress[address]
	if !ok {
		return Asset{}, &RegistryError{Kind: "address", Value: address}
	}
	return r.assets[i], nil
}

// IndexOf returns the registry index for a ledger address.
func (r *Registry) IndexOf(address string) (int, error) {
	i, ok := r.byAddress[address]
	if !ok {
		return 0, &RegistryError{Kind: "address", Value: address}
	}
	return i, nil
}
