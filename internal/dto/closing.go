package dto

import (
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DifferenceJustificationRequest is one explained difference declared at closing.
type DifferenceJustificationRequest struct {
	Monto         decimal.Decimal `json:"monto"`
	Concepto      string          `json:"concepto" binding:"required,max=200"`
	Justificacion string          `json:"justificacion" binding:"required,max=500"`
}

// ClosePeriodRequest is the closing request body. StatementID is the period id.
type ClosePeriodRequest struct {
	StatementID              string                           `json:"statementId" binding:"required"`
	DifferenceJustifications []DifferenceJustificationRequest `json:"differenceJustifications" binding:"omitempty,dive"`
	NotasCierre              string                           `json:"notasCierre" binding:"max=2000"`
	ForzarCierre             bool                             `json:"forzarCierre"`
	GenerarAjuste            bool                             `json:"generarAjuste"`
	SaldoBancarioReal        *decimal.Decimal                 `json:"saldoBancarioReal"`
}

// ClosePeriodResponse reports the terminal state reached by a close.
type ClosePeriodResponse struct {
	PeriodID          string                  `json:"periodID"`
	PreviousState     domain.PeriodState      `json:"previousState"`
	State             domain.PeriodState      `json:"state"`
	TotalDifference   decimal.Decimal         `json:"totalDifference"`
	AdjustmentID      *string                 `json:"adjustmentID,omitempty"`
	AdjustmentType    domain.AdjustmentType   `json:"adjustmentType,omitempty"`
	AdjustmentAmount  *decimal.Decimal        `json:"adjustmentAmount,omitempty"`
	AccountingBalance decimal.Decimal         `json:"accountingBalance"`
	BankBalance       decimal.Decimal         `json:"bankBalance"`
	Counts            apperrors.PendingCounts `json:"counts"`
	ClosedAt          time.Time               `json:"closedAt"`
}

// ReopenPeriodRequest carries the mandatory reopen reason.
type ReopenPeriodRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ReopenPeriodResponse reports the state after reopening.
type ReopenPeriodResponse struct {
	PeriodID      string             `json:"periodID"`
	PreviousState domain.PeriodState `json:"previousState"`
	State         domain.PeriodState `json:"state"`
	ReopenedAt    time.Time          `json:"reopenedAt"`
}
