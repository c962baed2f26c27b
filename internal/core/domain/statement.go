package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus is the reconciliation status of a statement line.
type MatchStatus string

const (
	LineUnmatched MatchStatus = "UNMATCHED"
	LineMatched   MatchStatus = "MATCHED"
	LineSuspense  MatchStatus = "SUSPENSE"
)

// Valid reports whether s is one of the known statuses.
func (s MatchStatus) Valid() bool {
	switch s {
	case LineUnmatched, LineMatched, LineSuspense:
		return true
	}
	return false
}

// StatementBatch records one imported upload, keyed by its external batch reference.
type StatementBatch struct {
	PeriodID   string    `json:"periodID"`
	BatchRef   string    `json:"batchRef"`
	LineCount  int       `json:"lineCount"`
	ImportedAt time.Time `json:"importedAt"`
	ImportedBy string    `json:"importedBy"`
}

// StatementLine is one bank-reported transaction.
type StatementLine struct {
	LineID            string          `json:"lineID"`
	PeriodID          string          `json:"periodID"`
	BatchRef          string          `json:"batchRef"`
	Amount            decimal.Decimal `json:"amount"` // signed
	ValueDate         time.Time       `json:"valueDate"`
	Description       string          `json:"description"`
	ExternalReference string          `json:"externalReference"`
	Status            MatchStatus     `json:"status"`
	AuditFields
}

// StatementRow is an already-decoded statement row handed to import.
type StatementRow struct {
	Amount            decimal.Decimal
	ValueDate         time.Time
	Description       string
	ExternalReference string
}
