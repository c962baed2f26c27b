package dto

import (
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// AssignSuspenseRequest names the operator responsible for an item.
type AssignSuspenseRequest struct {
	AssignedTo string `json:"assignedTo" binding:"required,max=100"`
}

// ResolveSuspenseRequest is used by skip and write-off.
type ResolveSuspenseRequest struct {
	Justification string `json:"justification" binding:"required,max=500"`
}

// ConvertSuspenseRequest describes the movement created to mirror the suspense line.
// Amount always mirrors the line; date and source reference default to the line's.
type ConvertSuspenseRequest struct {
	Date        *time.Time `json:"date"`
	SourceRef   string     `json:"sourceRef" binding:"max=100"`
	Description string     `json:"description" binding:"max=500"`
}

// ListSuspenseParams defines query parameters for listing suspense items.
type ListSuspenseParams struct {
	IncludeResolved bool `form:"includeResolved,default=false"`
}

// SuspenseItemResponse defines the data returned for a suspense item.
type SuspenseItemResponse struct {
	ItemID        string                 `json:"itemID"`
	PeriodID      string                 `json:"periodID"`
	LineID        string                 `json:"lineID"`
	Reason        domain.SuspenseReason  `json:"reason"`
	AssignedTo    string                 `json:"assignedTo,omitempty"`
	Outcome       domain.SuspenseOutcome `json:"outcome,omitempty"`
	Justification string                 `json:"justification,omitempty"`
	MovementID    *string                `json:"movementID,omitempty"`
	ResolvedBy    string                 `json:"resolvedBy,omitempty"`
	ResolvedAt    *time.Time             `json:"resolvedAt,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	LastUpdatedAt time.Time              `json:"lastUpdatedAt"`
}

// ListSuspenseResponse wraps a period's suspense items.
type ListSuspenseResponse struct {
	Items []SuspenseItemResponse `json:"items"`
}

// ToSuspenseItemResponse converts a domain.SuspenseItem to SuspenseItemResponse DTO.
func ToSuspenseItemResponse(s *domain.SuspenseItem) SuspenseItemResponse {
	return SuspenseItemResponse{
		ItemID:        s.ItemID,
		PeriodID:      s.PeriodID,
		LineID:        s.LineID,
		Reason:        s.Reason,
		AssignedTo:    s.AssignedTo,
		Outcome:       s.Outcome,
		Justification: s.Justification,
		MovementID:    s.MovementID,
		ResolvedBy:    s.ResolvedBy,
		ResolvedAt:    s.ResolvedAt,
		CreatedAt:     s.CreatedAt,
		LastUpdatedAt: s.LastUpdatedAt,
	}
}
