package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

// fakeTokenLedger is an in-memory token ledger for one asset. Zero-value
// fields mean "succeed"; set the err fields to force a failure.
type fakeTokenLedger struct {
	mu sync.Mutex

	meta   domain.TokenMetadata
	wallet decimal.Decimal

	metadataErr error
	balanceErr  error
	approveErr  error

	balanceCalls int
	approveCalls int
	approved     []approval
}

type approval struct {
	spender string
	amount  decimal.Decimal
}

func (f *fakeTokenLedger) Metadata(ctx context.Context) (domain.TokenMetadata, error) {
	if f.metadataErr != nil {
		return domain.TokenMetadata{}, f.metadataErr
	}
	return f.meta, nil
}

func (f *fakeTokenLedger) BalanceOf(ctx context.Context, principal string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	if f.balanceErr != nil {
		return decimal.Zero, f.balanceErr
	}
	return f.wallet, nil
}

func (f *fakeTokenLedger) Approve(ctx context.Context, spender string, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approveCalls++
	if f.approveErr != nil {
		return f.approveErr
	}
	f.approved = append(f.approved, approval{spender: spender, amount: amount})
	return nil
}

// fakeExchange is an in-memory exchange ledger. Custody balances are keyed
// principal+"/"+asset. Orders get sequential ids starting at nextID.
type fakeExchange struct {
	mu sync.Mutex

	custody map[string]decimal.Decimal
	orders  []domain.Order
	nextID  uint64

	balanceErr  error
	ordersErr   error
	placeErr    error
	cancelErr   error
	depositErr  error
	withdrawErr error

	placeCalls   int
	cancelCalls  int
	depositCalls int
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{custody: make(map[string]decimal.Decimal), nextID: 1}
}

func custodyKey(principal, asset string) string { return principal + "/" + asset }

func (f *fakeExchange) setCustody(principal, asset string, v decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.custody[custodyKey(principal, asset)] = v
}

func (f *fakeExchange) Balance(ctx context.Context, principal, asset string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return decimal.Zero, f.balanceErr
	}
	return f.custody[custodyKey(principal, asset)], nil
}

func (f *fakeExchange) Orders(ctx context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	out := make([]domain.Order, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, fromAsset string, fromAmount decimal.Decimal, toAsset string, toAmount decimal.Decimal) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placeCalls++
	if f.placeErr != nil {
		return 0, f.placeErr
	}
	id := f.nextID
	f.nextID++
	f.orders = append(f.orders, domain.Order{
		ID:         id,
		FromAsset:  fromAsset,
		FromAmount: fromAmount,
		ToAsset:    toAsset,
		ToAmount:   toAmount,
	})
	return id, nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, id uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	if f.cancelErr != nil {
		return 0, f.cancelErr
	}
	for i, o := range f.orders {
		if o.ID == id {
			f.orders = append(f.orders[:i], f.orders[i+1:]...)
			return id, nil
		}
	}
	return 0, &domain.RemoteRejection{Op: "exchange.cancelOrder", Tag: "OrderIdNotFound"}
}

func (f *fakeExchange) Deposit(ctx context.Context, asset string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.depositCalls++
	return f.depositErr
}

func (f *fakeExchange) Withdraw(ctx context.Context, asset string, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.withdrawErr
}

// fakeFaucet counts issuances.
type fakeFaucet struct {
	err   error
	calls int
}

func (f *fakeFaucet) GetToken(ctx context.Context, asset string) error {
	f.calls++
	return f.err
}

// fakeJournal records appended activity in memory.
type fakeJournal struct {
	err     error
	records []domain.ActivityRecord
}

func (f *fakeJournal) Append(rec *domain.ActivityRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *rec)
	return nil
}

// testRegistry builds the two-asset registry used across the service tests.
func testRegistry(t interface{ Fatalf(string, ...any) }) *domain.Registry {
	reg, err := domain.NewRegistry([]domain.Asset{
		{Symbol: "TGLD", Address: "aaaaa-aa", Fee: decimal.NewFromInt(1)},
		{Symbol: "TSLV", Address: "bbbbb-bb", Fee: decimal.NewFromInt(1)},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
