package agent

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

// TokenLedger calls one token canister through the gateway.
type TokenLedger struct {
	c       *Client
	address string
}

var _ domain.TokenLedger = (*TokenLedger)(nil)

// NewTokenLedger wraps the token canister at the given ledger address.
func NewTokenLedger(c *Client, address string) *TokenLedger {
	return &TokenLedger{c: c, address: address}
}

// metadataDTO carries the subset of token metadata the client consumes.
type metadataDTO struct {
	Symbol string          `json:"symbol"`
	Fee    decimal.Decimal `json:"fee"`
}

// Metadata reads the token's declared symbol and transfer fee.
func (l *TokenLedger) Metadata(ctx context.Context) (domain.TokenMetadata, error) {
	var dto metadataDTO
	if err := l.c.call(ctx, l.address, "getMetadata", nil, &dto); err != nil {
		return domain.TokenMetadata{}, err
	}
	return domain.TokenMetadata{Symbol: dto.Symbol, Fee: dto.Fee}, nil
}

// BalanceOf reads the wallet balance held directly on this ledger.
func (l *TokenLedger) BalanceOf(ctx context.Context, principal string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := l.c.call(ctx, l.address, "balanceOf", []any{principal}, &balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Approve authorizes spender to transfer up to amount on the caller's behalf.
func (l *TokenLedger) Approve(ctx context.Context, spender string, amount decimal.Decimal) error {
	return l.c.call(ctx, l.address, "approve", []any{spender, amount}, nil)
}
