package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
	"github.com/unchain-tech/icp-basic-dex/internal/service"
)

// Core owns the client's published state: the account snapshot and the order
// book projection for the active session. All mutation flows through the
// service orchestrators; Core decides what gets published and always hands
// out value copies, so a caller can never mutate the projections in place.
//
// Publication rule: an operation's fresh projection replaces the prior one
// only when the refetch itself succeeded. A snapshot with unavailable-flagged
// records is still a valid snapshot and is published; a book that could not
// be fetched at all is not, and the prior book is kept. The zero-value
// markers the services use (nil Tokens, nil Orders) encode "no projection
// produced".
type Core struct {
	registry        *domain.Registry
	journal         service.ActivityJournal
	exchangeAddress string
	logger          *slog.Logger

	mu        sync.RWMutex
	session   *domain.Session
	snapshots *service.SnapshotBuilder
	projector *service.OrderBookProjector
	custody   *service.CustodyOrchestrator
	trading   *service.TradeOrchestrator
	snap      domain.AccountSnapshot
	book      domain.OrderBook
}

// NewCore creates the core for one deployment. journal may be nil.
func NewCore(registry *domain.Registry, journal service.ActivityJournal, exchangeAddress string) *Core {
	return &Core{
		registry:        registry,
		journal:         journal,
		exchangeAddress: exchangeAddress,
		logger:          slog.Default().With("module", "core"),
	}
}

// OpenSession activates a session and wires the orchestrators over its call
// capabilities. Any previously published projections are discarded; the
// session starts empty until the first sync.
func (c *Core) OpenSession(session domain.Session) error {
	snapshots, err := service.NewSnapshotBuilder(c.registry, session.Tokens, session.Exchange)
	if err != nil {
		return err
	}
	custody, err := service.NewCustodyOrchestrator(
		c.registry, session.Tokens, session.Exchange, session.Faucet,
		snapshots, c.journal, c.exchangeAddress)
	if err != nil {
		return err
	}
	projector := service.NewOrderBookProjector(c.registry, session.Exchange)
	trading := service.NewTradeOrchestrator(c.registry, session.Exchange, projector, snapshots, c.journal)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &session
	c.snapshots = snapshots
	c.projector = projector
	c.custody = custody
	c.trading = trading
	c.snap = domain.AccountSnapshot{}
	c.book = domain.OrderBook{}

	c.logger.Info("session opened", "principal", session.Principal)
	return nil
}

// CloseSession discards the session and everything derived from it. After
// close, every operation reports ErrNoSession until a new session opens.
func (c *Core) CloseSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.logger.Info("session closed", "principal", c.session.Principal)
	}
	c.session = nil
	c.snapshots = nil
	c.projector = nil
	c.custody = nil
	c.trading = nil
	c.snap = domain.AccountSnapshot{}
	c.book = domain.OrderBook{}
}

// Snapshot returns a copy of the last published account snapshot.
func (c *Core) Snapshot() (domain.AccountSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return domain.AccountSnapshot{}, domain.ErrNoSession
	}
	return c.snap.Clone(), nil
}

// Book returns a copy of the last published order book.
func (c *Core) Book() (domain.OrderBook, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return domain.OrderBook{}, domain.ErrNoSession
	}
	return c.book.Clone(), nil
}

// Principal returns the active session's principal.
func (c *Core) Principal() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return "", domain.ErrNoSession
	}
	return c.session.Principal, nil
}

// SyncAll rebuilds both projections from the ledgers: the full account
// snapshot and the full order book. Partial results still publish (see the
// Core publication rule); the returned error reports what degraded.
func (c *Core) SyncAll(ctx context.Context) error {
	c.mu.RLock()
	if c.session == nil {
		c.mu.RUnlock()
		return domain.ErrNoSession
	}
	principal := c.session.Principal
	snapshots, projector := c.snapshots, c.projector
	c.mu.RUnlock()

	snap, snapErr := snapshots.Build(ctx, principal)
	book, bookErr := projector.Project(ctx)

	c.mu.Lock()
	if c.session != nil {
		c.publishSnapshotLocked(snap)
		c.publishBookLocked(book)
	}
	c.mu.Unlock()

	return errors.Join(snapErr, bookErr)
}

// RefreshAsset re-reads one asset's balances and publishes the updated
// snapshot; every other record is carried over unchanged.
func (c *Core) RefreshAsset(ctx context.Context, index int) error {
	c.mu.RLock()
	if c.session == nil {
		c.mu.RUnlock()
		return domain.ErrNoSession
	}
	principal := c.session.Principal
	snapshots := c.snapshots
	prior := c.snap.Clone()
	c.mu.RUnlock()

	updated, err := snapshots.RefreshOne(ctx, prior, index, principal)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.session != nil {
		c.publishSnapshotLocked(updated)
	}
	c.mu.Unlock()
	return nil
}

// Deposit runs the approve-then-deposit workflow for the indexed asset and
// publishes the refreshed snapshot. On failure the prior snapshot stands.
func (c *Core) Deposit(ctx context.Context, index int, amount decimal.Decimal) error {
	return c.custodyOp(ctx, func(ctx context.Context, custody *service.CustodyOrchestrator, snap domain.AccountSnapshot) (domain.AccountSnapshot, error) {
		return custody.Deposit(ctx, snap, index, amount)
	})
}

// Withdraw moves custodied funds back to the wallet for the indexed asset
// and publishes the refreshed snapshot.
func (c *Core) Withdraw(ctx context.Context, index int, amount decimal.Decimal) error {
	return c.custodyOp(ctx, func(ctx context.Context, custody *service.CustodyOrchestrator, snap domain.AccountSnapshot) (domain.AccountSnapshot, error) {
		return custody.Withdraw(ctx, snap, index, amount)
	})
}

// FaucetIssue requests test tokens for the indexed asset and publishes the
// wallet-refreshed snapshot.
func (c *Core) FaucetIssue(ctx context.Context, index int) error {
	return c.custodyOp(ctx, func(ctx context.Context, custody *service.CustodyOrchestrator, snap domain.AccountSnapshot) (domain.AccountSnapshot, error) {
		return custody.FaucetIssue(ctx, snap, index)
	})
}

func (c *Core) custodyOp(ctx context.Context, op func(context.Context, *service.CustodyOrchestrator, domain.AccountSnapshot) (domain.AccountSnapshot, error)) error {
	c.mu.RLock()
	if c.session == nil {
		c.mu.RUnlock()
		return domain.ErrNoSession
	}
	custody := c.custody
	prior := c.snap.Clone()
	c.mu.RUnlock()

	updated, err := op(ctx, custody, prior)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.session != nil {
		c.publishSnapshotLocked(updated)
	}
	c.mu.Unlock()
	return nil
}

// Place submits a new order and publishes the re-projected book. The order
// id is returned so the caller can track it.
func (c *Core) Place(ctx context.Context, fromSymbol string, fromAmount decimal.Decimal, toSymbol string, toAmount decimal.Decimal) (uint64, error) {
	c.mu.RLock()
	if c.session == nil {
		c.mu.RUnlock()
		return 0, domain.ErrNoSession
	}
	trading := c.trading
	c.mu.RUnlock()

	id, book, err := trading.Place(ctx, fromSymbol, fromAmount, toSymbol, toAmount)
	c.mu.Lock()
	if c.session != nil {
		c.publishBookLocked(book)
	}
	c.mu.Unlock()
	return id, err
}

// Accept takes the listed order with the given id from the published book
// and submits its mirror. On success both projections are rebuilt: the
// acceptance moves the book and the accepting principal's balances.
func (c *Core) Accept(ctx context.Context, orderID uint64) error {
	c.mu.RLock()
	if c.session == nil {
		c.mu.RUnlock()
		return domain.ErrNoSession
	}
	trading := c.trading
	principal := c.session.Principal
	target, found := c.book.Find(orderID)
	c.mu.RUnlock()

	if !found {
		return &domain.ValidationError{Field: "orderId", Reason: "order is not in the current book"}
	}

	book, snap, err := trading.Accept(ctx, principal, target.Order)
	c.mu.Lock()
	if c.session != nil {
		c.publishBookLocked(book)
		c.publishSnapshotLocked(snap)
	}
	c.mu.Unlock()
	return err
}

// Cancel removes an open order and publishes the re-projected book. The
// snapshot is untouched: cancellation moves no balances.
func (c *Core) Cancel(ctx context.Context, orderID uint64) error {
	c.mu.RLock()
	if c.session == nil {
		c.mu.RUnlock()
		return domain.ErrNoSession
	}
	trading := c.trading
	c.mu.RUnlock()

	book, err := trading.Cancel(ctx, orderID)
	c.mu.Lock()
	if c.session != nil {
		c.publishBookLocked(book)
	}
	c.mu.Unlock()
	return err
}

// publishSnapshotLocked replaces the published snapshot when the build
// produced one. A nil Tokens slice means no projection was produced.
func (c *Core) publishSnapshotLocked(snap domain.AccountSnapshot) {
	if snap.Tokens == nil {
		return
	}
	c.snap = snap
}

// publishBookLocked replaces the published book when the projection
// produced one. A nil Orders slice means the order fetch itself failed and
// the prior book is kept.
func (c *Core) publishBookLocked(book domain.OrderBook) {
	if book.Orders == nil {
		return
	}
	c.book = book
}
