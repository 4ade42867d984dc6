package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

// CustodyOrchestrator sequences the multi-step custody transfers: deposit
// (approve then deposit), withdraw, and faucet issuance, each followed by a
// targeted snapshot refresh. Workflows run to completion or report failure;
// there is no resumable checkpointing and no automatic retry. On failure the
// input snapshot is returned unchanged, so callers keep their prior valid
// projection.
type CustodyOrchestrator struct {
	registry        *domain.Registry
	tokens          []domain.TokenLedger
	dex             domain.ExchangeLedger
	faucet          domain.Faucet
	snapshots       *SnapshotBuilder
	journal         ActivityJournal
	exchangeAddress string
	logger          *slog.Logger

	// perAsset serializes custody operations per registry index so two
	// refreshes of the same record cannot race (last-write-wins hazard).
	// Different indices proceed independently.
	perAsset []sync.Mutex
}

// NewCustodyOrchestrator wires the orchestrator for one session. faucet and
// journal may be nil when the deployment has neither.
func NewCustodyOrchestrator(
	registry *domain.Registry,
	tokens []domain.TokenLedger,
	dex domain.ExchangeLedger,
	faucet domain.Faucet,
	snapshots *SnapshotBuilder,
	journal ActivityJournal,
	exchangeAddress string,
) (*CustodyOrchestrator, error) {
	if len(tokens) != registry.Len() {
		return nil, fmt.Errorf("token ledgers (%d) do not match registry (%d)", len(tokens), registry.Len())
	}
	if exchangeAddress == "" {
		return nil, fmt.Errorf("exchange address is required")
	}
	return &CustodyOrchestrator{
		registry:        registry,
		tokens:          tokens,
		dex:             dex,
		faucet:          faucet,
		snapshots:       snapshots,
		journal:         journal,
		exchangeAddress: exchangeAddress,
		logger:          slog.Default().With("module", "custody"),
		perAsset:        make([]sync.Mutex, registry.Len()),
	}, nil
}

// Deposit moves amount of the indexed asset from the wallet into exchange
// custody: (1) approve the exchange as spender on the token ledger, (2) call
// deposit on the exchange, (3) refresh that asset's record. If step 2 fails
// the approval from step 1 remains granted; this is an accepted, observable
// side effect the caller may re-drive rather than something silently undone.
func (c *CustodyOrchestrator) Deposit(ctx context.Context, snap domain.AccountSnapshot, index int, amount decimal.Decimal) (domain.AccountSnapshot, error) {
	asset, err := c.registry.At(index)
	if err != nil {
		return snap, err
	}
	if amount.Sign() <= 0 {
		return snap, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	c.perAsset[index].Lock()
	defer c.perAsset[index].Unlock()

	if err := c.tokens[index].Approve(ctx, c.exchangeAddress, amount); err != nil {
		return snap, fmt.Errorf("%w: %w", domain.ErrApprovalFailed, err)
	}
	if err := c.dex.Deposit(ctx, asset.Address); err != nil {
		c.logger.Warn("deposit failed after approval; approval remains granted",
			"symbol", asset.Symbol, "amount", amount, "error", err)
		return snap, fmt.Errorf("%w: %w", domain.ErrDepositFailed, err)
	}

	updated, err := c.snapshots.RefreshOne(ctx, snap, index, snap.Principal)
	if err != nil {
		// The transfer landed; only the refresh failed.
		return snap, err
	}

	c.record(&domain.ActivityRecord{
		Principal: snap.Principal,
		Kind:      domain.ActivityDeposit,
		Symbol:    asset.Symbol,
		Amount:    amount,
	})
	c.logger.Info("deposit complete", "symbol", asset.Symbol, "amount", amount)
	return updated, nil
}

// Withdraw moves amount of the indexed asset from exchange custody back to
// the wallet, then refreshes that asset's record.
func (c *CustodyOrchestrator) Withdraw(ctx context.Context, snap domain.AccountSnapshot, index int, amount decimal.Decimal) (domain.AccountSnapshot, error) {
	asset, err := c.registry.At(index)
	if err != nil {
		return snap, err
	}
	if amount.Sign() <= 0 {
		return snap, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	c.perAsset[index].Lock()
	defer c.perAsset[index].Unlock()

	if err := c.dex.Withdraw(ctx, asset.Address, amount); err != nil {
		return snap, fmt.Errorf("%w: %w", domain.ErrWithdrawFailed, err)
	}

	updated, err := c.snapshots.RefreshOne(ctx, snap, index, snap.Principal)
	if err != nil {
		return snap, err
	}

	c.record(&domain.ActivityRecord{
		Principal: snap.Principal,
		Kind:      domain.ActivityWithdraw,
		Symbol:    asset.Symbol,
		Amount:    amount,
	})
	c.logger.Info("withdraw complete", "symbol", asset.Symbol, "amount", amount)
	return updated, nil
}

// FaucetIssue asks the faucet to top up the wallet for the indexed asset,
// then refreshes only the wallet side of that record: a faucet issuance
// cannot move the custody balance, so its prior snapshotted value is kept
// rather than re-fetched.
func (c *CustodyOrchestrator) FaucetIssue(ctx context.Context, snap domain.AccountSnapshot, index int) (domain.AccountSnapshot, error) {
	asset, err := c.registry.At(index)
	if err != nil {
		return snap, err
	}
	if c.faucet == nil {
		return snap, fmt.Errorf("%w: no faucet configured", domain.ErrFaucetFailed)
	}

	c.perAsset[index].Lock()
	defer c.perAsset[index].Unlock()

	if err := c.faucet.GetToken(ctx, asset.Address); err != nil {
		return snap, fmt.Errorf("%w: %w", domain.ErrFaucetFailed, err)
	}

	updated, err := c.snapshots.RefreshWallet(ctx, snap, index, snap.Principal)
	if err != nil {
		return snap, err
	}

	c.record(&domain.ActivityRecord{
		Principal: snap.Principal,
		Kind:      domain.ActivityFaucet,
		Symbol:    asset.Symbol,
	})
	c.logger.Info("faucet issuance complete", "symbol", asset.Symbol)
	return updated, nil
}

// record writes to the journal when one is configured. Journal failures are
// logged, never propagated: history is advisory.
func (c *CustodyOrchestrator) record(rec *domain.ActivityRecord) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Append(rec); err != nil {
		c.logger.Warn("journal write failed", "kind", rec.Kind, "error", err)
	}
}
