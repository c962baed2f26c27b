package dto

import (
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AutoMatchResponse reports the outcome of one auto-match run.
type AutoMatchResponse struct {
	PeriodID string `json:"periodID"`
	Matched  int    `json:"matched"`
	Suspense int    `json:"suspense"`
}

// ManualMatchRequest selects the movements a line should be linked to.
type ManualMatchRequest struct {
	MovementIDs []string `json:"movementIDs" binding:"required,min=1,unique,dive,required"`
}

// MatchLinkResponse defines the data returned for a match link.
type MatchLinkResponse struct {
	LinkID                 string           `json:"linkID"`
	LineID                 string           `json:"lineID"`
	PeriodID               string           `json:"periodID"`
	MovementIDs            []string         `json:"movementIDs"`
	Type                   domain.MatchType `json:"type"`
	Confidence             float64          `json:"confidence"`
	ResolvedSuspenseItemID *string          `json:"resolvedSuspenseItemID,omitempty"`
	CreatedBy              string           `json:"createdBy"`
	CreatedAt              time.Time        `json:"createdAt"`
}

// UnmatchResponse returns the removed link and the line's restored status.
type UnmatchResponse struct {
	LineID      string             `json:"lineID"`
	LineStatus  domain.MatchStatus `json:"lineStatus"`
	RemovedLink MatchLinkResponse  `json:"removedLink"`
}

// CandidateResponse is one ranked candidate movement for a line.
type CandidateResponse struct {
	MovementID     string          `json:"movementID"`
	Amount         decimal.Decimal `json:"amount"`
	MovementDate   time.Time       `json:"movementDate"`
	SourceRef      string          `json:"sourceRef"`
	Description    string          `json:"description"`
	ReferenceMatch bool            `json:"referenceMatch"`
	DayDistance    int             `json:"dayDistance"`
	Confidence     float64         `json:"confidence"`
}

// ListCandidatesResponse wraps the ranked candidates of a line.
type ListCandidatesResponse struct {
	LineID     string              `json:"lineID"`
	Candidates []CandidateResponse `json:"candidates"`
}

// ToMatchLinkResponse converts a domain.MatchLink to MatchLinkResponse DTO.
func ToMatchLinkResponse(l *domain.MatchLink) MatchLinkResponse {
	return MatchLinkResponse{
		LinkID:                 l.LinkID,
		LineID:                 l.LineID,
		PeriodID:               l.PeriodID,
		MovementIDs:            l.MovementIDs,
		Type:                   l.Type,
		Confidence:             l.Confidence,
		ResolvedSuspenseItemID: l.ResolvedSuspenseItemID,
		CreatedBy:              l.CreatedBy,
		CreatedAt:              l.CreatedAt,
	}
}

// ToCandidateResponses converts ranked candidates to their DTOs, keeping order.
func ToCandidateResponses(candidates []domain.MatchCandidate) []CandidateResponse {
	responses := make([]CandidateResponse, len(candidates))
	for i, c := range candidates {
		responses[i] = CandidateResponse{
			MovementID:     c.Movement.MovementID,
			Amount:         c.Movement.Amount,
			MovementDate:   c.Movement.MovementDate,
			SourceRef:      c.Movement.SourceRef,
			Description:    c.Movement.Description,
			ReferenceMatch: c.ReferenceMatch,
			DayDistance:    c.DayDistance,
			Confidence:     c.Confidence,
		}
	}
	return responses
}
