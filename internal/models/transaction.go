package models

import "time"

// TransactionType distinguishes buys from sells in the backend ledger.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// Transaction is a ledger entry written by the due-plan executor (and by
// future manual trading flows). It never crosses the gateway; assets are
// the externally visible aggregate.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	AssetID         uint            `gorm:"index;not null" json:"asset_id"`
	Type            TransactionType `gorm:"not null" json:"type"`
	Amount          float64         `gorm:"not null" json:"amount"`
	Price           float64         `gorm:"not null" json:"price"`
	TotalCost       float64         `gorm:"not null" json:"total_cost"`
	TransactionDate time.Time       `gorm:"not null" json:"transaction_date"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
}
