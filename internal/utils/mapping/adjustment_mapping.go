package mapping

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

// ToModelAdjustment converts a domain ClosingAdjustment to a model ClosingAdjustment
func ToModelAdjustment(d domain.ClosingAdjustment) models.ClosingAdjustment {
	return models.ClosingAdjustment{
		AdjustmentID:   d.AdjustmentID,
		PeriodID:       d.PeriodID,
		MovementID:     d.MovementID,
		Amount:         d.Amount,
		AdjustmentType: string(d.Type),
		Justification:  d.Justification,
		CreatedAt:      d.CreatedAt,
		CreatedBy:      d.CreatedBy,
	}
}

// ToDomainAdjustment converts a model ClosingAdjustment to a domain ClosingAdjustment
func ToDomainAdjustment(m models.ClosingAdjustment) domain.ClosingAdjustment {
	return domain.ClosingAdjustment{
		AdjustmentID:  m.AdjustmentID,
		PeriodID:      m.PeriodID,
		MovementID:    m.MovementID,
		Amount:        m.Amount,
		Type:          domain.AdjustmentType(m.AdjustmentType),
		Justification: m.Justification,
		CreatedAt:     m.CreatedAt.UTC(),
		CreatedBy:     m.CreatedBy,
	}
}
