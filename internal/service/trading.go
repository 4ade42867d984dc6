package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

// TradeOrchestrator sequences order placement, acceptance and cancellation.
// Every successful operation is followed by a full book re-projection; an
// acceptance additionally rebuilds the account snapshot, since a matched
// trade moves balances on both sides. The orchestrator performs no
// deduplication of repeated calls: a double-submit places two orders, and
// callers are expected to gate their triggers while a call is in flight.
type TradeOrchestrator struct {
	registry  *domain.Registry
	dex       domain.ExchangeLedger
	projector *OrderBookProjector
	snapshots *SnapshotBuilder
	journal   ActivityJournal
	logger    *slog.Logger
}

// NewTradeOrchestrator wires the orchestrator for one session. journal may
// be nil.
func NewTradeOrchestrator(
	registry *domain.Registry,
	dex domain.ExchangeLedger,
	projector *OrderBookProjector,
	snapshots *SnapshotBuilder,
	journal ActivityJournal,
) *TradeOrchestrator {
	return &TradeOrchestrator{
		registry:  registry,
		dex:       dex,
		projector: projector,
		snapshots: snapshots,
		journal:   journal,
		logger:    slog.Default().With("module", "trading"),
	}
}

// Place resolves both symbols through the registry, validates the amounts
// locally (zero-amount orders are meaningless and never round-trip), submits
// the order, and re-projects the book. It returns the exchange-assigned id
// and the fresh book; on placement failure nothing was submitted and no
// projection changes.
func (t *TradeOrchestrator) Place(ctx context.Context, fromSymbol string, fromAmount decimal.Decimal, toSymbol string, toAmount decimal.Decimal) (uint64, domain.OrderBook, error) {
	from, err := t.registry.BySymbol(fromSymbol)
	if err != nil {
		return 0, domain.OrderBook{}, err
	}
	to, err := t.registry.BySymbol(toSymbol)
	if err != nil {
		return 0, domain.OrderBook{}, err
	}
	if fromAmount.Sign() <= 0 {
		return 0, domain.OrderBook{}, &domain.ValidationError{Field: "fromAmount", Reason: "must be positive"}
	}
	if toAmount.Sign() <= 0 {
		return 0, domain.OrderBook{}, &domain.ValidationError{Field: "toAmount", Reason: "must be positive"}
	}

	id, err := t.dex.PlaceOrder(ctx, from.Address, fromAmount, to.Address, toAmount)
	if err != nil {
		return 0, domain.OrderBook{}, err
	}

	t.record(&domain.ActivityRecord{
		Kind:    domain.ActivityPlace,
		OrderID: id,
		Symbol:  fromSymbol,
		Amount:  fromAmount,
	})
	t.logger.Info("order placed", "id", id, "from", fromSymbol, "to", toSymbol)

	book, err := t.projector.Project(ctx)
	return id, book, err
}

// Accept submits the mirror counter-order for the target (from/to and
// amounts swapped), which the exchange is expected to match against the
// existing entry. On success both projections move: the book is re-projected
// and the principal's snapshot is rebuilt wholesale, because a matched trade
// changes balances on both legs. On error no local state changes.
func (t *TradeOrchestrator) Accept(ctx context.Context, principal string, target domain.Order) (domain.OrderBook, domain.AccountSnapshot, error) {
	if target.FromAmount.Sign() <= 0 || target.ToAmount.Sign() <= 0 {
		return domain.OrderBook{}, domain.AccountSnapshot{}, &domain.ValidationError{Field: "order", Reason: "amounts must be positive"}
	}

	mirror := target.Mirror()
	_, err := t.dex.PlaceOrder(ctx, mirror.FromAsset, mirror.FromAmount, mirror.ToAsset, mirror.ToAmount)
	if err != nil {
		return domain.OrderBook{}, domain.AccountSnapshot{}, err
	}

	t.record(&domain.ActivityRecord{
		Principal: principal,
		Kind:      domain.ActivityAccept,
		OrderID:   target.ID,
		Amount:    target.ToAmount,
	})
	t.logger.Info("order accepted", "target_id", target.ID)

	book, bookErr := t.projector.Project(ctx)
	snap, snapErr := t.snapshots.Build(ctx, principal)
	return book, snap, errors.Join(bookErr, snapErr)
}

// Cancel removes an open order and re-projects the book. Cancellation moves
// no balances, so the snapshot is left alone.
func (t *TradeOrchestrator) Cancel(ctx context.Context, id uint64) (domain.OrderBook, error) {
	cancelled, err := t.dex.CancelOrder(ctx, id)
	if err != nil {
		return domain.OrderBook{}, err
	}

	t.record(&domain.ActivityRecord{
		Kind:    domain.ActivityCancel,
		OrderID: cancelled,
	})
	t.logger.Info("order cancelled", "id", cancelled)

	return t.projector.Project(ctx)
}

func (t *TradeOrchestrator) record(rec *domain.ActivityRecord) {
	if t.journal == nil {
		return
	}
	if err := t.journal.Append(rec); err != nil {
		t.logger.Warn("journal write failed", "kind", rec.Kind, "error", err)
	}
}
