package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerMovement is an internally recorded cash or bank movement owned by the ledger collaborator.
type LedgerMovement struct {
	MovementID    string          `json:"movementID"`
	AccountID     string          `json:"accountID"`
	Amount        decimal.Decimal `json:"amount"` // signed
	MovementDate  time.Time       `json:"movementDate"`
	SourceRef     string          `json:"sourceRef"`
	Description   string          `json:"description"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
}

// MovementDraft is what the core asks the collaborator to record.
type MovementDraft struct {
	AccountID   string
	Amount      decimal.Decimal
	Date        time.Time
	SourceRef   string
	Description string
	CreatedAt   time.Time
	CreatedBy   string
}
