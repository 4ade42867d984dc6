package service

import (
	"context"
	"errors"
	"testing"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

type tradingFixture struct {
	dex     *fakeExchange
	journal *fakeJournal
	orch    *TradeOrchestrator
}

func newTradingFixture(t *testing.T) *tradingFixture {
	t.Helper()
	reg := testRegistry(t)
	f := &tradingFixture{
		dex:     newFakeExchange(),
		journal: &fakeJournal{},
	}
	gold := &fakeTokenLedger{meta: domain.TokenMetadata{Symbol: "TGLD", Fee: dec(1)}, wallet: dec(100)}
	silver := &fakeTokenLedger{meta: domain.TokenMetadata{Symbol: "TSLV", Fee: dec(1)}, wallet: dec(250)}
	tokens := []domain.TokenLedger{gold, silver}

	builder, err := NewSnapshotBuilder(reg, tokens, f.dex)
	if err != nil {
		t.Fatalf("NewSnapshotBuilder: %v", err)
	}
	f.orch = NewTradeOrchestrator(reg, f.dex, NewOrderBookProjector(reg, f.dex), builder, f.journal)
	return f
}

func TestPlaceSubmitsAndReprojects(t *testing.T) {
	f := newTradingFixture(t)

	id, book, err := f.orch.Place(context.Background(), "TGLD", dec(10), "TSLV", dec(20))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1", id)
	}
	if len(book.Orders) != 1 {
		t.Fatalf("book has %d orders, want 1", len(book.Orders))
	}
	got := book.Orders[0]
	if got.FromSymbol != "TGLD" || got.ToSymbol != "TSLV" {
		t.Errorf("symbols = %s/%s", got.FromSymbol, got.ToSymbol)
	}
	if got.FromAsset != "aaaaa-aa" || got.ToAsset != "bbbbb-bb" {
		t.Errorf("addresses = %s/%s", got.FromAsset, got.ToAsset)
	}
	if len(f.journal.records) != 1 || f.journal.records[0].Kind != domain.ActivityPlace {
		t.Errorf("journal = %+v", f.journal.records)
	}
}

func TestPlaceUnknownSymbolNeverCallsRemote(t *testing.T) {
	f := newTradingFixture(t)

	_, _, err := f.orch.Place(context.Background(), "DOGE", dec(10), "TSLV", dec(20))
	var re *domain.RegistryError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RegistryError", err)
	}
	if re.Kind != "symbol" || re.Value != "DOGE" {
		t.Errorf("registry error = %+v", re)
	}
	if f.dex.placeCalls != 0 {
		t.Errorf("placeOrder called %d times, want 0", f.dex.placeCalls)
	}
}

func TestPlaceZeroAmountNeverCallsRemote(t *testing.T) {
	f := newTradingFixture(t)

	cases := []struct {
		name     string
		from, to int64
	}{
		{"zero from", 0, 20},
		{"zero to", 10, 0},
		{"negative from", -1, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.orch.Place(context.Background(), "TGLD", dec(tc.from), "TSLV", dec(tc.to))
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
		})
	}
	if f.dex.placeCalls != 0 {
		t.Errorf("placeOrder called %d times, want 0", f.dex.placeCalls)
	}
}

func TestAcceptSubmitsMirrorOrder(t *testing.T) {
	f := newTradingFixture(t)
	target := domain.Order{
		ID:         7,
		FromAsset:  "aaaaa-aa",
		FromAmount: dec(10),
		ToAsset:    "bbbbb-bb",
		ToAmount:   dec(20),
	}
	f.dex.orders = []domain.Order{target}
	f.dex.nextID = 8

	book, snap, err := f.orch.Accept(context.Background(), "bob", target)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	// The submitted counter-order has from/to and amounts swapped.
	if f.dex.placeCalls != 1 {
		t.Fatalf("placeOrder calls = %d, want 1", f.dex.placeCalls)
	}
	mirror := f.dex.orders[len(f.dex.orders)-1]
	if mirror.FromAsset != "bbbbb-bb" || !mirror.FromAmount.Equal(dec(20)) {
		t.Errorf("mirror from = %s %s", mirror.FromAsset, mirror.FromAmount)
	}
	if mirror.ToAsset != "aaaaa-aa" || !mirror.ToAmount.Equal(dec(10)) {
		t.Errorf("mirror to = %s %s", mirror.ToAsset, mirror.ToAmount)
	}

	// Both projections were rebuilt.
	if len(book.Orders) != 2 {
		t.Errorf("book has %d orders", len(book.Orders))
	}
	if snap.Principal != "bob" || len(snap.Tokens) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(f.journal.records) != 1 || f.journal.records[0].Kind != domain.ActivityAccept {
		t.Errorf("journal = %+v", f.journal.records)
	}
}

func TestAcceptFailureChangesNothingLocally(t *testing.T) {
	f := newTradingFixture(t)
	f.dex.placeErr = &domain.RemoteRejection{Op: "exchange.placeOrder", Tag: "InsufficientFunds"}

	target := domain.Order{ID: 7, FromAsset: "aaaaa-aa", FromAmount: dec(10), ToAsset: "bbbbb-bb", ToAmount: dec(20)}
	_, _, err := f.orch.Accept(context.Background(), "bob", target)
	var rr *domain.RemoteRejection
	if !errors.As(err, &rr) || rr.Tag != "InsufficientFunds" {
		t.Fatalf("err = %v, want rejection with tag", err)
	}
	if len(f.journal.records) != 0 {
		t.Errorf("failed acceptance was journaled: %+v", f.journal.records)
	}
}

func TestCancelRemovesOrderFromBook(t *testing.T) {
	f := newTradingFixture(t)
	f.dex.orders = []domain.Order{
		{ID: 1, FromAsset: "aaaaa-aa", FromAmount: dec(10), ToAsset: "bbbbb-bb", ToAmount: dec(20)},
		{ID: 2, FromAsset: "bbbbb-bb", FromAmount: dec(5), ToAsset: "aaaaa-aa", ToAmount: dec(3)},
	}

	book, err := f.orch.Cancel(context.Background(), 1)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(book.Orders) != 1 || book.Orders[0].ID != 2 {
		t.Errorf("book = %+v", book.Orders)
	}
	if _, found := book.Find(1); found {
		t.Error("cancelled order still in book")
	}
	if len(f.journal.records) != 1 || f.journal.records[0].Kind != domain.ActivityCancel {
		t.Errorf("journal = %+v", f.journal.records)
	}
}

func TestCancelUnknownOrderKeepsTag(t *testing.T) {
	f := newTradingFixture(t)

	_, err := f.orch.Cancel(context.Background(), 999)
	var rr *domain.RemoteRejection
	if !errors.As(err, &rr) {
		t.Fatalf("err = %v, want *RemoteRejection", err)
	}
	if rr.Tag != "OrderIdNotFound" {
		t.Errorf("tag = %q", rr.Tag)
	}
}

func TestDoubleSubmitPlacesTwoOrders(t *testing.T) {
	f := newTradingFixture(t)

	id1, _, err := f.orch.Place(context.Background(), "TGLD", dec(10), "TSLV", dec(20))
	if err != nil {
		t.Fatalf("first Place: %v", err)
	}
	id2, book, err := f.orch.Place(context.Background(), "TGLD", dec(10), "TSLV", dec(20))
	if err != nil {
		t.Fatalf("second Place: %v", err)
	}
	if id1 == id2 {
		t.Errorf("both placements got id %d", id1)
	}
	if len(book.Orders) != 2 {
		t.Errorf("book has %d orders, want 2: no client-side dedup", len(book.Orders))
	}
}
