// Package service implements the client-side orchestration over the remote
// ledgers: snapshot building, order book projection, custody transfers and
// the order lifecycle. Services hold no remote state of their own; every
// operation reads the ledgers and returns a fresh immutable projection.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

// ActivityJournal records completed operations for local history. The
// journal is advisory: a write failure never fails the operation itself.
type ActivityJournal interface {
	Append(rec *domain.ActivityRecord) error
}

// maxConcurrentReads caps the per-asset fan-out during a snapshot build.
const maxConcurrentReads = 4

// SnapshotBuilder merges, per registered asset, the wallet balance, the
// custodied balance and the token metadata into one AccountSnapshot.
type SnapshotBuilder struct {
	registry *domain.Registry
	tokens   []domain.TokenLedger
	dex      domain.ExchangeLedger
	logger   *slog.Logger
}

// NewSnapshotBuilder wires the builder for one session. tokens must be
// parallel to the registry (one ledger client per asset, registry order).
func NewSnapshotBuilder(registry *domain.Registry, tokens []domain.TokenLedger, dex domain.ExchangeLedger) (*SnapshotBuilder, error) {
	if len(tokens) != registry.Len() {
		return nil, fmt.Errorf("token ledgers (%d) do not match registry (%d)", len(tokens), registry.Len())
	}
	return &SnapshotBuilder{
		registry: registry,
		tokens:   tokens,
		dex:      dex,
		logger:   slog.Default().With("module", "snapshot"),
	}, nil
}

// Build assembles a full snapshot for the principal. Per-asset reads are
// issued concurrently and merged by registry index, never by arrival order.
// Assets are isolated from each other: a failing asset yields a record
// flagged Unavailable (registry slot kept, zero balances) and the build
// returns the snapshot together with a joined error naming the failures.
func (b *SnapshotBuilder) Build(ctx context.Context, principal string) (domain.AccountSnapshot, error) {
	assets := b.registry.Assets()
	records := make([]domain.TokenRecord, len(assets))
	errs := make([]error, len(assets))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrentReads)

	for i := range assets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				records[i] = unavailableRecord(assets[i])
				errs[i] = fmt.Errorf("%s: %w", assets[i].Symbol, ctx.Err())
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			rec, err := b.fetchRecord(ctx, i, principal)
			if err != nil {
				b.logger.Warn("asset read failed", "symbol", assets[i].Symbol, "error", err)
				records[i] = unavailableRecord(assets[i])
				errs[i] = fmt.Errorf("%s: %w", assets[i].Symbol, err)
				return
			}
			records[i] = rec
		}(i)
	}
	wg.Wait()

	snap := domain.AccountSnapshot{Principal: principal, Tokens: records}
	return snap, errors.Join(errs...)
}

// RefreshOne re-reads wallet and custody balances for exactly one asset and
// returns a snapshot identical to the input except for that one record.
// Every other record is carried over unchanged, not re-fetched; this is the
// contract that makes post-transfer refresh cheap.
func (b *SnapshotBuilder) RefreshOne(ctx context.Context, snap domain.AccountSnapshot, index int, principal string) (domain.AccountSnapshot, error) {
	asset, err := b.checkIndex(snap, index)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}

	wallet, err := b.tokens[index].BalanceOf(ctx, principal)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	custody, err := b.dex.Balance(ctx, principal, asset.Address)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}

	out := snap.Clone()
	rec := out.Tokens[index]
	rec.WalletBalance = wallet
	rec.CustodyBalance = custody
	rec.Unavailable = false
	out.Tokens[index] = rec
	return out, nil
}

// RefreshWallet re-reads only the wallet side of one asset's record. The
// custody balance keeps its prior snapshotted value; this is the faucet
// path, where custody is known to be unaffected.
func (b *SnapshotBuilder) RefreshWallet(ctx context.Context, snap domain.AccountSnapshot, index int, principal string) (domain.AccountSnapshot, error) {
	if _, err := b.checkIndex(snap, index); err != nil {
		return domain.AccountSnapshot{}, err
	}

	wallet, err := b.tokens[index].BalanceOf(ctx, principal)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}

	out := snap.Clone()
	rec := out.Tokens[index]
	rec.WalletBalance = wallet
	rec.Unavailable = false
	out.Tokens[index] = rec
	return out, nil
}

// fetchRecord issues the three reads for one asset: metadata, wallet
// balance, custodied balance.
func (b *SnapshotBuilder) fetchRecord(ctx context.Context, index int, principal string) (domain.TokenRecord, error) {
	asset := b.registry.Assets()[index]

	meta, err := b.tokens[index].Metadata(ctx)
	if err != nil {
		return domain.TokenRecord{}, err
	}
	wallet, err := b.tokens[index].BalanceOf(ctx, principal)
	if err != nil {
		return domain.TokenRecord{}, err
	}
	custody, err := b.dex.Balance(ctx, principal, asset.Address)
	if err != nil {
		return domain.TokenRecord{}, err
	}

	return domain.TokenRecord{
		Symbol:         meta.Symbol,
		WalletBalance:  wallet,
		CustodyBalance: custody,
		Fee:            meta.Fee,
	}, nil
}

func (b *SnapshotBuilder) checkIndex(snap domain.AccountSnapshot, index int) (domain.Asset, error) {
	asset, err := b.registry.At(index)
	if err != nil {
		return domain.Asset{}, err
	}
	if index >= len(snap.Tokens) {
		return domain.Asset{}, &domain.ValidationError{Field: "snapshot", Reason: fmt.Sprintf("snapshot has %d records, index %d", len(snap.Tokens), index)}
	}
	return asset, nil
}

// unavailableRecord keeps an unreachable asset's registry slot. Symbol and
// fee fall back to the registry's declared values.
func unavailableRecord(asset domain.Asset) domain.TokenRecord {
	return domain.TokenRecord{
		Symbol:      asset.Symbol,
		Fee:         asset.Fee,
		Unavailable: true,
	}
}
