package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentType is derived from the sign of the closing differential.
type AdjustmentType string

const (
	AdjustmentIngreso AdjustmentType = "INGRESO" // inflow, positive differential
	AdjustmentEgreso  AdjustmentType = "EGRESO"  // outflow, negative differential
)

// ClosingAdjustment is the balancing movement posted while closing a period.
type ClosingAdjustment struct {
	AdjustmentID  string          `json:"adjustmentID"`
	PeriodID      string          `json:"periodID"`
	MovementID    string          `json:"movementID"`
	Amount        decimal.Decimal `json:"amount"` // always positive
	Type          AdjustmentType  `json:"type"`
	Justification string          `json:"justification"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// SignedAmount returns the ledger-signed amount of the adjustment.
func (a ClosingAdjustment) SignedAmount() decimal.Decimal {
	if a.Type == AdjustmentEgreso {
		return a.Amount.Neg()
	}
	return a.Amount
}
