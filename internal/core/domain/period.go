package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodState is the lifecycle state of a reconciliation period.
type PeriodState string

const (
	PeriodOpen            PeriodState = "OPEN"
	PeriodClosing         PeriodState = "CLOSING"
	PeriodCompleted       PeriodState = "COMPLETED"
	PeriodWithDifferences PeriodState = "WITH_DIFFERENCES"
	PeriodReopened        PeriodState = "REOPENED"
)

// periodTransitions lists every allowed edge. REOPENED only exists on the way back to OPEN.
var periodTransitions = map[PeriodState][]PeriodState{
	PeriodOpen:            {PeriodClosing},
	PeriodClosing:         {PeriodCompleted, PeriodWithDifferences},
	PeriodCompleted:       {PeriodReopened},
	PeriodWithDifferences: {PeriodReopened},
	PeriodReopened:        {PeriodOpen},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to PeriodState) bool {
	for _, next := range periodTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal is true for the two closed states.
func (s PeriodState) IsTerminal() bool {
	return s == PeriodCompleted || s == PeriodWithDifferences
}

// DifferenceJustification is one operator-declared, explained difference at closing time.
type DifferenceJustification struct {
	Amount        decimal.Decimal `json:"amount"`
	Concept       string          `json:"concept"`
	Justification string          `json:"justification"`
}

// ReconciliationPeriod is one bank account's reconciliation window.
type ReconciliationPeriod struct {
	PeriodID          string                    `json:"periodID"`
	AccountID         string                    `json:"accountID"`
	PeriodStart       time.Time                 `json:"periodStart"`
	PeriodEnd         time.Time                 `json:"periodEnd"`
	AccountingBalance decimal.Decimal           `json:"accountingBalance"` // saldo contable
	BankBalance       decimal.Decimal           `json:"bankBalance"`       // saldo bancario
	State             PeriodState               `json:"state"`
	ClosingNotes      string                    `json:"closingNotes"`
	Justifications    []DifferenceJustification `json:"justifications"`
	TotalDifference   decimal.Decimal           `json:"totalDifference"`
	AdjustmentID      *string                   `json:"adjustmentID,omitempty"`
	ClosedAt          *time.Time                `json:"closedAt,omitempty"`
	ClosedBy          string                    `json:"closedBy,omitempty"`
	AuditFields
}

// Contains reports whether the calendar day of t falls inside the period window.
func (p ReconciliationPeriod) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(p.PeriodStart)) && !d.After(DateOnly(p.PeriodEnd))
}
