package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

// OrderBookProjector turns the exchange's raw open orders into the display
// book, resolving each side's ledger address to a symbol via the registry.
type OrderBookProjector struct {
	registry *domain.Registry
	dex      domain.ExchangeLedger
	logger   *slog.Logger
}

// NewOrderBookProjector wires the projector for one session.
func NewOrderBookProjector(registry *domain.Registry, dex domain.ExchangeLedger) *OrderBookProjector {
	return &OrderBookProjector{
		registry: registry,
		dex:      dex,
		logger:   slog.Default().With("module", "orderbook"),
	}
}

// Project refetches the full open-order set and decorates every order with
// display symbols. An order referencing an address missing from the registry
// is a registry/ledger mismatch: that entry is excluded from the book and
// reported through a *domain.RegistryError in the returned (joined) error,
// while the remaining orders still project. A fetch failure returns a zero
// book and the transport/rejection error alone.
func (p *OrderBookProjector) Project(ctx context.Context) (domain.OrderBook, error) {
	raw, err := p.dex.Orders(ctx)
	if err != nil {
		return domain.OrderBook{}, err
	}

	display := make([]domain.DisplayOrder, 0, len(raw))
	var errs []error
	for _, o := range raw {
		from, err := p.registry.ByAddress(o.FromAsset)
		if err != nil {
			p.logger.Warn("order references unknown asset", "order_id", o.ID, "address", o.FromAsset)
			errs = append(errs, fmt.Errorf("order %d: %w", o.ID, err))
			continue
		}
		to, err := p.registry.ByAddress(o.ToAsset)
		if err != nil {
			p.logger.Warn("order references unknown asset", "order_id", o.ID, "address", o.ToAsset)
			errs = append(errs, fmt.Errorf("order %d: %w", o.ID, err))
			continue
		}
		display = append(display, domain.DisplayOrder{
			Order:      o,
			FromSymbol: from.Symbol,
			ToSymbol:   to.Symbol,
		})
	}

	return domain.OrderBook{Orders: display}, errors.Join(errs...)
}
