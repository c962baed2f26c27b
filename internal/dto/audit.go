package dto

import (
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// ListAuditParams defines query parameters for listing a period's audit trail.
type ListAuditParams struct {
	Limit     int     `form:"limit,default=50"`
	NextToken *string `form:"nextToken"`
}

// AuditEntryResponse defines the data returned for an audit entry.
type AuditEntryResponse struct {
	EntryID     string              `json:"entryID"`
	EntityType  string              `json:"entityType"`
	EntityID    string              `json:"entityID"`
	Kind        domain.AuditKind    `json:"kind"`
	BeforeState string              `json:"beforeState,omitempty"`
	AfterState  string              `json:"afterState,omitempty"`
	Actor       string              `json:"actor"`
	Timestamp   time.Time           `json:"timestamp"`
	Payload     domain.AuditPayload `json:"payload"`
}

// ListAuditResponse wraps a page of audit entries.
type ListAuditResponse struct {
	Entries   []AuditEntryResponse `json:"entries"`
	NextToken *string              `json:"nextToken,omitempty"`
}

// ToAuditEntryResponses converts audit entries to their DTOs.
func ToAuditEntryResponses(entries []domain.AuditEntry) []AuditEntryResponse {
	responses := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = AuditEntryResponse{
			EntryID:     e.EntryID,
			EntityType:  e.EntityType,
			EntityID:    e.EntityID,
			Kind:        e.Kind(),
			BeforeState: e.BeforeState,
			AfterState:  e.AfterState,
			Actor:       e.Actor,
			Timestamp:   e.Timestamp,
			Payload:     e.Payload,
		}
	}
	return responses
}
