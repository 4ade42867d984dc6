package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// TokenMetadata is the declared metadata of one token ledger.
type TokenMetadata struct {
	Symbol string
	Fee    decimal.Decimal
}

// TokenLedger is the capability exposed by one token contract. All calls are
// remote and carry no local retry; retry policy belongs to the orchestrators.
// Transport faults surface as *TransportError, ledger-side denials as
// *RemoteRejection.
type TokenLedger interface {
	Metadata(ctx context.Context) (TokenMetadata, error)
	BalanceOf(ctx context.Context, principal string) (decimal.Decimal, error)
	Approve(ctx context.Context, spender string, amount decimal.Decimal) error
}

// ExchangeLedger is the capability exposed by the exchange contract: the
// custody book and the open order book. Deposit assumes a prior, sufficient
// approve on the corresponding token ledger; the exchange performs none.
type ExchangeLedger interface {
	Balance(ctx context.Context, principal, asset string) (decimal.Decimal, error)
	Orders(ctx context.Context) ([]Order, error)
	PlaceOrder(ctx context.Context, fromAsset string, fromAmount decimal.Decimal, toAsset string, toAmount decimal.Decimal) (uint64, error)
	CancelOrder(ctx context.Context, id uint64) (uint64, error)
	Deposit(ctx context.Context, asset string) error
	Withdraw(ctx context.Context, asset string, amount decimal.Decimal) error
}

// Faucet issues test tokens to the caller's wallet on the given token ledger.
type Faucet interface {
	GetToken(ctx context.Context, asset string) error
}
