package domain

import "github.com/shopspring/decimal"

// TokenRecord is the per-asset, per-account projection merged from two
// independent remote reads: the wallet balance on the token ledger and the
// custodied balance on the exchange ledger. The two reads are not atomic
// with respect to each other; a record is a point-in-time view, never an
// atomically consistent pair.
type TokenRecord struct {
	Symbol         string          `json:"symbol"`
	WalletBalance  decimal.Decimal `json:"wallet_balance"`
	CustodyBalance decimal.Decimal `json:"custody_balance"`
	Fee            decimal.Decimal `json:"fee"`

	// Unavailable marks an asset whose reads failed during a snapshot
	// build. The record keeps its registry slot (zero balances) so that
	// snapshot ordering stays stable; symbol and fee fall back to the
	// registry's declared values.
	Unavailable bool `json:"unavailable,omitempty"`
}

// AccountSnapshot is the merged view of one principal's holdings across all
// registered assets, in registry order. Snapshots are immutable values: a
// rebuild or refresh produces a new snapshot, never an in-place mutation.
type AccountSnapshot struct {
	Principal string        `json:"principal"`
	Tokens    []TokenRecord `json:"tokens"`
}

// Clone returns a deep copy. TokenRecord fields are value types, so copying
// the backing slice is sufficient.
func (s AccountSnapshot) Clone() AccountSnapshot {
	out := AccountSnapshot{Principal: s.Principal}
	if s.Tokens != nil {
		out.Tokens = make([]TokenRecord, len(s.Tokens))
		copy(out.Tokens, s.Tokens)
	}
	return out
}
