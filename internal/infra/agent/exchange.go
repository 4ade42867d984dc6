package agent

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

// ExchangeLedger calls the exchange canister through the gateway.
type ExchangeLedger struct {
	c       *Client
	address string
}

var _ domain.ExchangeLedger = (*ExchangeLedger)(nil)

// NewExchangeLedger wraps the exchange canister at the given address.
func NewExchangeLedger(c *Client, address string) *ExchangeLedger {
	return &ExchangeLedger{c: c, address: address}
}

// orderDTO is the gateway's open-order shape.
type orderDTO struct {
	ID         uint64          `json:"id"`
	From       string          `json:"from"`
	FromAmount decimal.Decimal `json:"fromAmount"`
	To         string          `json:"to"`
	ToAmount   decimal.Decimal `json:"toAmount"`
}

func (d orderDTO) toDomain() domain.Order {
	return domain.Order{
		ID:         d.ID,
		FromAsset:  d.From,
		FromAmount: d.FromAmount,
		ToAsset:    d.To,
		ToAmount:   d.ToAmount,
	}
}

// Balance reads the custodied balance the principal holds on the exchange
// for the given asset.
func (l *ExchangeLedger) Balance(ctx context.Context, principal, asset string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := l.c.call(ctx, l.address, "getBalance", []any{principal, asset}, &balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Orders fetches the full open order set. The exchange is the source of
// truth; the client never diffs, it always refetches.
func (l *ExchangeLedger) Orders(ctx context.Context) ([]domain.Order, error) {
	var dtos []orderDTO
	if err := l.c.call(ctx, l.address, "getOrders", nil, &dtos); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, len(dtos))
	for i, d := range dtos {
		orders[i] = d.toDomain()
	}
	return orders, nil
}

// PlaceOrder submits a new order and returns the exchange-assigned id.
func (l *ExchangeLedger) PlaceOrder(ctx context.Context, fromAsset string, fromAmount decimal.Decimal, toAsset string, toAmount decimal.Decimal) (uint64, error) {
	var created orderDTO
	args := []any{fromAsset, fromAmount, toAsset, toAmount}
	if err := l.c.call(ctx, l.address, "placeOrder", args, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// CancelOrder cancels an open order and returns the cancelled id.
func (l *ExchangeLedger) CancelOrder(ctx context.Context, id uint64) (uint64, error) {
	var cancelled uint64
	if err := l.c.call(ctx, l.address, "cancelOrder", []any{id}, &cancelled); err != nil {
		return 0, err
	}
	return cancelled, nil
}

// Deposit moves the caller's previously approved tokens into exchange
// custody. The approve must already have landed on the token ledger.
func (l *ExchangeLedger) Deposit(ctx context.Context, asset string) error {
	return l.c.call(ctx, l.address, "deposit", []any{asset}, nil)
}

// Withdraw moves amount from exchange custody back to the caller's wallet.
func (l *ExchangeLedger) Withdraw(ctx context.Context, asset string, amount decimal.Decimal) error {
	return l.c.call(ctx, l.address, "withdraw", []any{asset, amount}, nil)
}
