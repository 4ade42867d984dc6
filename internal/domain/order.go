package domain

import "github.com/shopspring/decimal"

// Order is an open order as the exchange ledger reports it. The from/to
// sides are ledger addresses; the exchange is the only authority for order
// state, the client never mutates one.
type Order struct {
	ID         uint64          `json:"id"`
	FromAsset  string          `json:"from"`
	FromAmount decimal.Decimal `json:"from_amount"`
	ToAsset    string          `json:"to"`
	ToAmount   decimal.Decimal `json:"to_amount"`
}

// Mirror returns the counter-order an accepting party submits: from/to and
// amounts swapped relative to the target, which the exchange is expected to
// match against the existing entry.
func (o Order) Mirror() Order {
	return Order{
		FromAsset:  o.ToAsset,
		FromAmount: o.ToAmount,
		ToAsset:    o.FromAsset,
		ToAmount:   o.FromAmount,
	}
}

// DisplayOrder decorates a raw order with the display symbols resolved from
// the asset registry. The raw order is embedded unchanged.
type DisplayOrder struct {
	Order
	FromSymbol string `json:"from_symbol"`
	ToSymbol   string `json:"to_symbol"`
}

// OrderBook is the projected set of open orders. It is rebuilt wholesale
// from the exchange after every placement, acceptance or cancellation;
// there is no incremental diffing.
type OrderBook struct {
	Orders []DisplayOrder `json:"orders"`
}

// Clone returns a deep copy of the book.
func (b OrderBook) Clone() OrderBook {
	var out OrderBook
	if b.Orders != nil {
		out.Orders = make([]DisplayOrder, len(b.Orders))
		copy(out.Orders, b.Orders)
	}
	return out
}

// Find returns the order with the given id, if present.
func (b OrderBook) Find(id uint64) (DisplayOrder, bool) {
	for _, o := range b.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return DisplayOrder{}, false
}
