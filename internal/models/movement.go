package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerMovement represents a row of ledger_movements.
type LedgerMovement struct {
	MovementID    string          `db:"movement_id"`
	AccountID     string          `db:"account_id"`
	Amount        decimal.Decimal `db:"amount"`
	MovementDate  time.Time       `db:"movement_date"`
	SourceRef     string          `db:"source_ref"`
	Description   string          `db:"description"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	CreatedAt     time.Time       `db:"created_at"`
	CreatedBy     string          `db:"created_by"`
}
