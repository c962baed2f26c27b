package dto

import (
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OpenPeriodRequest opens a reconciliation window for a bank account.
type OpenPeriodRequest struct {
	AccountID   string          `json:"accountID" binding:"required,max=100"`
	PeriodStart time.Time       `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time       `json:"periodEnd" binding:"required,gtefield=PeriodStart"`
	BankBalance decimal.Decimal `json:"bankBalance"`
}

// DifferenceJustificationResponse is a stored closing justification.
type DifferenceJustificationResponse struct {
	Amount        decimal.Decimal `json:"amount"`
	Concept       string          `json:"concept"`
	Justification string          `json:"justification"`
}

// PeriodResponse defines the data returned for a reconciliation period.
type PeriodResponse struct {
	PeriodID          string                            `json:"periodID"`
	AccountID         string                            `json:"accountID"`
	PeriodStart       time.Time                         `json:"periodStart"`
	PeriodEnd         time.Time                         `json:"periodEnd"`
	State             domain.PeriodState                `json:"state"`
	AccountingBalance decimal.Decimal                   `json:"accountingBalance"`
	BankBalance       decimal.Decimal                   `json:"bankBalance"`
	TotalDifference   decimal.Decimal                   `json:"totalDifference"`
	ClosingNotes      string                            `json:"closingNotes,omitempty"`
	Justifications    []DifferenceJustificationResponse `json:"justifications"`
	AdjustmentID      *string                           `json:"adjustmentID,omitempty"`
	ClosedAt          *time.Time                        `json:"closedAt,omitempty"`
	ClosedBy          string                            `json:"closedBy,omitempty"`
	CreatedAt         time.Time                         `json:"createdAt"`
	CreatedBy         string                            `json:"createdBy"`
	LastUpdatedAt     time.Time                         `json:"lastUpdatedAt"`
	LastUpdatedBy     string                            `json:"lastUpdatedBy"`
}

// PeriodSummaryResponse reports the counts closing validation would see right now.
type PeriodSummaryResponse struct {
	PeriodID             string               `json:"periodID"`
	State                domain.PeriodState   `json:"state"`
	PendingCount         int                  `json:"pendingCount"`
	Counts               domain.PeriodCounts  `json:"counts"`
	BankBalance          decimal.Decimal      `json:"bankBalance"`
	CurrentLedgerBalance decimal.Decimal      `json:"currentLedgerBalance"`
	MatchedLinks         int                  `json:"matchedLinks"`
	Adjustments          []AdjustmentResponse `json:"adjustments"`
}

// AdjustmentResponse defines the data returned for a closing adjustment.
type AdjustmentResponse struct {
	AdjustmentID  string                `json:"adjustmentID"`
	MovementID    string                `json:"movementID"`
	Amount        decimal.Decimal       `json:"amount"`
	Type          domain.AdjustmentType `json:"type"`
	Justification string                `json:"justification"`
	CreatedBy     string                `json:"createdBy"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// ToPeriodResponse converts a domain.ReconciliationPeriod to PeriodResponse DTO.
func ToPeriodResponse(p *domain.ReconciliationPeriod) PeriodResponse {
	justifications := make([]DifferenceJustificationResponse, len(p.Justifications))
	for i, j := range p.Justifications {
		justifications[i] = DifferenceJustificationResponse{
			Amount:        j.Amount,
			Concept:       j.Concept,
			Justification: j.Justification,
		}
	}
	return PeriodResponse{
		PeriodID:          p.PeriodID,
		AccountID:         p.AccountID,
		PeriodStart:       p.PeriodStart,
		PeriodEnd:         p.PeriodEnd,
		State:             p.State,
		AccountingBalance: p.AccountingBalance,
		BankBalance:       p.BankBalance,
		TotalDifference:   p.TotalDifference,
		ClosingNotes:      p.ClosingNotes,
		Justifications:    justifications,
		AdjustmentID:      p.AdjustmentID,
		ClosedAt:          p.ClosedAt,
		ClosedBy:          p.ClosedBy,
		CreatedAt:         p.CreatedAt,
		CreatedBy:         p.CreatedBy,
		LastUpdatedAt:     p.LastUpdatedAt,
		LastUpdatedBy:     p.LastUpdatedBy,
	}
}

// ToAdjustmentResponse converts a domain.ClosingAdjustment to AdjustmentResponse DTO.
func ToAdjustmentResponse(a *domain.ClosingAdjustment) AdjustmentResponse {
	return AdjustmentResponse{
		AdjustmentID:  a.AdjustmentID,
		MovementID:    a.MovementID,
		Amount:        a.Amount,
		Type:          a.Type,
		Justification: a.Justification,
		CreatedBy:     a.CreatedBy,
		CreatedAt:     a.CreatedAt,
	}
}
