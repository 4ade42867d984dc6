package agent

import (
	"context"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

// Faucet calls the faucet canister through the gateway.
type Faucet struct {
	c       *Client
	address string
}

var _ domain.Faucet = (*Faucet)(nil)

// NewFaucet wraps the faucet canister at the given address.
func NewFaucet(c *Client, address string) *Faucet {
	return &Faucet{c: c, address: address}
}

// GetToken asks the faucet to issue test tokens on the given token ledger to
// the caller's wallet.
func (f *Faucet) GetToken(ctx context.Context, asset string) error {
	return f.c.call(ctx, f.address, "getToken", []any{asset}, nil)
}
