package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodState mirrors the reconciliation_periods.state check constraint.
type PeriodState string

// ReconciliationPeriod represents a row of reconciliation_periods.
type ReconciliationPeriod struct {
	PeriodID          string          `db:"period_id"`
	AccountID         string          `db:"account_id"`
	PeriodStart       time.Time       `db:"period_start"`
	PeriodEnd         time.Time       `db:"period_end"`
	AccountingBalance decimal.Decimal `db:"accounting_balance"`
	BankBalance       decimal.Decimal `db:"bank_balance"`
	State             PeriodState     `db:"state"`
	ClosingNotes      string          `db:"closing_notes"`
	Justifications    []byte          `db:"justifications"` // JSONB array
	TotalDifference   decimal.Decimal `db:"total_difference"`
	AdjustmentID      sql.NullString  `db:"adjustment_id"`
	ClosedAt          sql.NullTime    `db:"closed_at"`
	ClosedBy          sql.NullString  `db:"closed_by"`
	AuditFields
}
