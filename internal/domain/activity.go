package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Activity kinds recorded in the journal.
const (
	ActivityDeposit  = "DEPOSIT"
	ActivityWithdraw = "WITHDRAW"
	ActivityFaucet   = "FAUCET"
	ActivityPlace    = "PLACE"
	ActivityAccept   = "ACCEPT"
	ActivityCancel   = "CANCEL"
)

// ActivityRecord is one completed custody transfer or order action, persisted
// for local history. The journal is write-behind and advisory only; the
// remote ledgers stay the single source of truth.
type ActivityRecord struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Principal string          `gorm:"index" json:"principal"`
	Kind      string          `gorm:"index" json:"kind"`
	Symbol    string          `json:"symbol,omitempty"`
	OrderID   uint64          `json:"order_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}
