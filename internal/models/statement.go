package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementBatch represents a row of statement_batches.
type StatementBatch struct {
	PeriodID   string    `db:"period_id"`
	BatchRef   string    `db:"batch_ref"`
	LineCount  int       `db:"line_count"`
	ImportedAt time.Time `db:"imported_at"`
	ImportedBy string    `db:"imported_by"`
}

// StatementLine represents a row of statement_lines.
type StatementLine struct {
	LineID            string          `db:"line_id"`
	PeriodID          string          `db:"period_id"`
	BatchRef          string          `db:"batch_ref"`
	Amount            decimal.Decimal `db:"amount"`
	ValueDate         time.Time       `db:"value_date"`
	Description       string          `db:"description"`
	ExternalReference string          `db:"external_reference"`
	Status            string          `db:"status"`
	AuditFields
}
