package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosingAdjustment represents a row of closing_adjustments.
type ClosingAdjustment struct {
	AdjustmentID   string          `db:"adjustment_id"`
	PeriodID       string          `db:"period_id"`
	MovementID     string          `db:"movement_id"`
	Amount         decimal.Decimal `db:"amount"`
	AdjustmentType string          `db:"adjustment_type"`
	Justification  string          `db:"justification"`
	CreatedAt      time.Time       `db:"created_at"`
	CreatedBy      string          `db:"created_by"`
}
