package mapping

import (
	"slices"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

// ToModelMatchLink converts a domain MatchLink to a model MatchLink
func ToModelMatchLink(d domain.MatchLink) models.MatchLink {
	return models.MatchLink{
		LinkID:                 d.LinkID,
		LineID:                 d.LineID,
		PeriodID:               d.PeriodID,
		MatchType:              string(d.Type),
		Confidence:             d.Confidence,
		ResolvedSuspenseItemID: toNullString(d.ResolvedSuspenseItemID),
		PriorSuspenseOutcome:   string(d.PriorSuspenseOutcome),
		CreatedAt:              d.CreatedAt,
		CreatedBy:              d.CreatedBy,
		MovementIDs:            slices.Clone(d.MovementIDs),
	}
}

// ToDomainMatchLink converts a model MatchLink to a domain MatchLink
func ToDomainMatchLink(m models.MatchLink) domain.MatchLink {
	return domain.MatchLink{
		LinkID:                 m.LinkID,
		LineID:                 m.LineID,
		PeriodID:               m.PeriodID,
		MovementIDs:            slices.Clone(m.MovementIDs),
		Type:                   domain.MatchType(m.MatchType),
		Confidence:             m.Confidence,
		ResolvedSuspenseItemID: fromNullString(m.ResolvedSuspenseItemID),
		PriorSuspenseOutcome:   domain.SuspenseOutcome(m.PriorSuspenseOutcome),
		CreatedAt:              m.CreatedAt.UTC(),
		CreatedBy:              m.CreatedBy,
	}
}
