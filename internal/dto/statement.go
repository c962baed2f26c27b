package dto

import (
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StatementRowRequest is one already-decoded bank statement row.
type StatementRowRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	ValueDate         time.Time       `json:"valueDate" binding:"required"`
	Description       string          `json:"description" binding:"max=500"`
	ExternalReference string          `json:"externalReference" binding:"max=100"`
}

// ImportStatementRequest carries one statement batch for a period.
type ImportStatementRequest struct {
	BatchRef string                `json:"batchRef" binding:"required,max=100"`
	Rows     []StatementRowRequest `json:"rows" binding:"required,min=1,dive"`
	// AutoMatch runs the matching engine over the period in the same transaction. Defaults to true.
	AutoMatch *bool `json:"autoMatch"`
}

// ImportStatementResponse is returned with 202 Accepted.
type ImportStatementResponse struct {
	PeriodID      string `json:"periodID"`
	BatchRef      string `json:"batchRef"`
	ImportedCount int    `json:"importedCount"`
	Matched       int    `json:"matched"`
	Suspense      int    `json:"suspense"`
}

// ListLinesParams defines query parameters for listing statement lines.
type ListLinesParams struct {
	Status    string  `form:"status" binding:"omitempty,oneof=UNMATCHED MATCHED SUSPENSE"`
	Limit     int     `form:"limit,default=50"`
	NextToken *string `form:"nextToken"`
}

// StatementLineResponse defines the data returned for a statement line.
type StatementLineResponse struct {
	LineID            string             `json:"lineID"`
	PeriodID          string             `json:"periodID"`
	BatchRef          string             `json:"batchRef"`
	Amount            decimal.Decimal    `json:"amount"`
	ValueDate         time.Time          `json:"valueDate"`
	Description       string             `json:"description"`
	ExternalReference string             `json:"externalReference"`
	Status            domain.MatchStatus `json:"status"`
	LastUpdatedAt     time.Time          `json:"lastUpdatedAt"`
}

// ListLinesResponse wraps a page of statement lines.
type ListLinesResponse struct {
	Lines     []StatementLineResponse `json:"lines"`
	NextToken *string                 `json:"nextToken,omitempty"`
}

// ToStatementLineResponse converts a domain.StatementLine to StatementLineResponse DTO.
func ToStatementLineResponse(l *domain.StatementLine) StatementLineResponse {
	return StatementLineResponse{
		LineID:            l.LineID,
		PeriodID:          l.PeriodID,
		BatchRef:          l.BatchRef,
		Amount:            l.Amount,
		ValueDate:         l.ValueDate,
		Description:       l.Description,
		ExternalReference: l.ExternalReference,
		Status:            l.Status,
		LastUpdatedAt:     l.LastUpdatedAt,
	}
}

// ToStatementLineResponses converts a slice of domain.StatementLine.
func ToStatementLineResponses(lines []domain.StatementLine) []StatementLineResponse {
	responses := make([]StatementLineResponse, len(lines))
	for i := range lines {
		responses[i] = ToStatementLineResponse(&lines[i])
	}
	return responses
}
