package mapping

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

// ToModelSuspenseItem converts a domain SuspenseItem to a model SuspenseItem
func ToModelSuspenseItem(d domain.SuspenseItem) models.SuspenseItem {
	return models.SuspenseItem{
		ItemID:        d.ItemID,
		PeriodID:      d.PeriodID,
		LineID:        d.LineID,
		Reason:        string(d.Reason),
		AssignedTo:    d.AssignedTo,
		Outcome:       string(d.Outcome),
		Justification: d.Justification,
		MovementID:    toNullString(d.MovementID),
		ResolvedBy:    d.ResolvedBy,
		ResolvedAt:    toNullTime(d.ResolvedAt),
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainSuspenseItem converts a model SuspenseItem to a domain SuspenseItem
func ToDomainSuspenseItem(m models.SuspenseItem) domain.SuspenseItem {
	return domain.SuspenseItem{
		ItemID:        m.ItemID,
		PeriodID:      m.PeriodID,
		LineID:        m.LineID,
		Reason:        domain.SuspenseReason(m.Reason),
		AssignedTo:    m.AssignedTo,
		Outcome:       domain.SuspenseOutcome(m.Outcome),
		Justification: m.Justification,
		MovementID:    fromNullString(m.MovementID),
		ResolvedBy:    m.ResolvedBy,
		ResolvedAt:    fromNullTime(m.ResolvedAt),
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}
